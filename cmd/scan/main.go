// Command scan is a kiosk-side scanner: it watches a snapshot directory for
// QR codes and redeems each one against a running check-in server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"conference-checkin/internal/config"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/infra/adapters/capture"
	"conference-checkin/internal/infra/adapters/decoder"
	apiv1 "conference-checkin/internal/infra/api/apiv1"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/scanner"
)

func main() {
	dir := flag.String("dir", "", "directory the webcam drops snapshots into")
	server := flag.String("server", "http://localhost:8080", "check-in server base URL")
	interval := flag.Duration("interval", scanner.DefaultFrameInterval, "delay between sampled frames")
	code := flag.String("code", "", "redeem this code by hand instead of scanning")
	lang := flag.String("lang", "es", "message language (es, en)")
	once := flag.Bool("once", false, "stop after the first decoded code")
	verbose := flag.Bool("v", false, "debug logs")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(config.LogConfig{Level: level, Format: "console"}, true)
	tr := i18n.MustDefault(*lang)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiv1.NewRedeemClient(*server, nil, tr.T("redeem_internal_error"))

	if *code != "" {
		res := client.Redeem(ctx, *code)
		printResult(res)
		if !res.Success {
			os.Exit(1)
		}
		return
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "either -dir or -code is required")
		flag.Usage()
		os.Exit(2)
	}

	sess := scanner.NewSession(uuid.NewString(), capture.NewDirCamera(*dir), decoder.NewQRDecoder(), client, tr, logger,
		scanner.WithFrameInterval(*interval))
	logger.Info().Str("dir", *dir).Str("server", *server).Msg("scanning; Ctrl+C to stop")

	for {
		if err := sess.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("start scan")
		}
		st, err := sess.Wait(ctx)
		if err != nil {
			sess.Cancel()
			logger.Info().Msg("bye")
			return
		}

		switch st.State {
		case model.ScanDecoded:
			printResult(st.Result)
			if *once {
				return
			}
		case model.ScanCaptureFailed:
			logger.Fatal().Str("reason", st.FailureReason).Msg("capture failed")
		default:
			logger.Info().Str("state", string(st.State)).Msg("scan ended")
			return
		}

		// Leave the attendee a moment to step away before the next read.
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func printResult(res *model.RedemptionResult) {
	if res == nil {
		return
	}
	mark := "✅"
	if !res.Success {
		mark = "❌"
	}
	fmt.Printf("%s %s\n", mark, res.Message)
	if res.Success {
		fmt.Printf("   %s <%s>\n", res.ParticipantName, res.ParticipantEmail)
	}
}
