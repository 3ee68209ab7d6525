package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"conference-checkin/internal/config"
	"conference-checkin/internal/infra/adapters/qrimage"
	pg "conference-checkin/internal/infra/db/postgres"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	name := flag.String("name", "", "add one ticket for this participant instead of seeding the demo set")
	email := flag.String("email", "", "email for -name (derived from the name when empty)")
	qrOut := flag.String("qr", "", "with -name: write the ticket QR code PNG to this path")
	list := flag.Bool("list", false, "print tickets and attendance, change nothing")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.Database.URL == "" {
		logger.Fatal().Msg("database.url is required: the in-memory store only lives inside the app (use seed.demo there)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	ticketUC := usecase.NewTicketUseCase(pg.NewTicketRepo(pool), pg.NewAttendanceRepo(pool), pg.NewTxManager(pool), qrimage.NewEncoder(), logger)

	switch {
	case *list:
		tickets, err := ticketUC.ListTickets(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("list tickets")
		}
		for _, t := range tickets {
			fmt.Printf("  - %s %-24s %-32s used=%t\n", t.Code, t.ParticipantName, t.Email, t.Used)
		}
		records, err := ticketUC.ListAttendance(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("list attendance")
		}
		fmt.Printf("%d tickets, %d attendance records\n", len(tickets), len(records))

	case *name != "":
		t, err := ticketUC.AddTicket(ctx, *name, *email)
		if err != nil {
			logger.Fatal().Err(err).Msg("add ticket")
		}
		fmt.Printf("added: %s (id=%s, code=%s, email=%s)\n", t.ParticipantName, t.ID, t.Code, t.Email)
		if *qrOut != "" {
			png, err := ticketUC.TicketQR(ctx, t.ID, 0)
			if err != nil {
				logger.Fatal().Err(err).Msg("render qr")
			}
			if err := os.WriteFile(*qrOut, png, 0o644); err != nil {
				logger.Fatal().Err(err).Msg("write qr")
			}
			fmt.Printf("qr code written to %s\n", *qrOut)
		}

	default:
		n, err := ticketUC.SeedDemo(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed demo tickets")
		}
		if n == 0 {
			fmt.Println("demo tickets already present. No changes.")
			return
		}
		fmt.Printf("✅ Seeding complete: %d demo tickets added.\n", n)
	}
}
