package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"
	red "conference-checkin/internal/infra/redis"
	"conference-checkin/internal/usecase"
)

const defaultMaxFrameBytes = 5 << 20

// Limiter throttles redeem calls per client; *redis.RateLimiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server implements ServerInterface on top of the use cases.
type Server struct {
	redeem  usecase.RedemptionUseCase
	tickets usecase.TicketUseCase
	scans   usecase.ScanUseCase
	log     *zerolog.Logger

	limiter       Limiter
	rateLimit     int
	rateWindow    time.Duration
	maxFrameBytes int64
}

var _ ServerInterface = (*Server)(nil)

type Option func(*Server)

// WithRedeemRateLimit caps POST /redeem at limit calls per window per client address.
func WithRedeemRateLimit(l Limiter, limit int, window time.Duration) Option {
	return func(s *Server) {
		if l != nil && limit > 0 && window > 0 {
			s.limiter, s.rateLimit, s.rateWindow = l, limit, window
		}
	}
}

func WithMaxFrameBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxFrameBytes = n
		}
	}
}

func NewServer(redeem usecase.RedemptionUseCase, tickets usecase.TicketUseCase, scans usecase.ScanUseCase, logger *zerolog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		redeem:        redeem,
		tickets:       tickets,
		scans:         scans,
		log:           logger,
		maxFrameBytes: defaultMaxFrameBytes,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterAPIV1 mounts the generated routes (absolute /api/v1/... paths) on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		},
	})
}

// ---- redeem ----

func (s *Server) RedeemCode(w http.ResponseWriter, r *http.Request) {
	var req RedeemCodeJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx := r.Context()

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, redeemRateKey(r), s.rateLimit, s.rateWindow)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			metrics.IncRateLimited("http")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
	}

	res := s.redeem.Redeem(usecase.WithChannel(ctx, "http"), req.Code)
	writeJSON(w, http.StatusOK, toRedeemResponse(res))
}

func redeemRateKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return red.ClientKey("http", host)
}

// ---- tickets ----

func (s *Server) ListTickets(w http.ResponseWriter, r *http.Request) {
	list, err := s.tickets.ListTickets(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := TicketList{Items: make([]Ticket, 0, len(list))}
	for _, t := range list {
		out.Items = append(out.Items, toTicket(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := ""
	if req.Email != nil {
		email = *req.Email
	}
	t, err := s.tickets.AddTicket(r.Context(), req.Name, email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicket(t))
}

func (s *Server) GetTicket(w http.ResponseWriter, r *http.Request, id string) {
	t, err := s.tickets.GetTicket(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicket(t))
}

func (s *Server) DeleteTicket(w http.ResponseWriter, r *http.Request, id string) {
	ok, err := s.tickets.RemoveTicket(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetTicketQr(w http.ResponseWriter, r *http.Request, id string, params GetTicketQrParams) {
	size := 0
	if params.Size != nil {
		size = *params.Size
	}
	png, err := s.tickets.TicketQR(r.Context(), id, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) ListAttendance(w http.ResponseWriter, r *http.Request) {
	list, err := s.tickets.ListAttendance(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := AttendanceList{Items: make([]AttendanceRecord, 0, len(list))}
	for _, a := range list {
		out.Items = append(out.Items, AttendanceRecord{Id: a.ID, TicketId: a.TicketID, Timestamp: a.Timestamp})
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- scans ----

func (s *Server) OpenScan(w http.ResponseWriter, r *http.Request) {
	st, err := s.scans.Open(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScanSession(st))
}

func (s *Server) GetScan(w http.ResponseWriter, r *http.Request, id string) {
	st, err := s.scans.Status(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScanSession(st))
}

func (s *Server) CancelScan(w http.ResponseWriter, r *http.Request, id string) {
	st, err := s.scans.Cancel(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScanSession(st))
}

func (s *Server) PushFrame(w http.ResponseWriter, r *http.Request, id string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxFrameBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "frame too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.scans.PushFrame(r.Context(), id, body); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) ReportCaptureError(w http.ResponseWriter, r *http.Request, id string) {
	var req ReportCaptureErrorJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.scans.ReportCaptureError(r.Context(), id, string(req.Kind)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ---- helpers ----

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTooManySessions):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, Error{Message: msg})
}

func toTicket(t *model.Ticket) Ticket {
	return Ticket{
		Id:              t.ID,
		Code:            t.Code,
		ParticipantName: t.ParticipantName,
		Email:           t.Email,
		Used:            t.Used,
		CreatedAt:       t.CreatedAt,
	}
}

func toRedeemResponse(res *model.RedemptionResult) RedeemResponse {
	out := RedeemResponse{Success: res.Success, Message: res.Message, RedeemedAt: res.RedeemedAt}
	if res.Reason != model.ReasonNone {
		reason := RedeemResponseReason(res.Reason)
		out.Reason = &reason
	}
	out.ParticipantName = optional(res.ParticipantName)
	out.ParticipantEmail = optional(res.ParticipantEmail)
	out.AttendanceId = optional(res.AttendanceID)
	return out
}

func toScanSession(st model.ScanStatus) ScanSession {
	out := ScanSession{
		Id:            st.SessionID,
		State:         ScanSessionState(st.State),
		FramesSampled: st.FramesSampled,
		UpdatedAt:     st.UpdatedAt,
		LastOutcome:   optional(string(st.LastOutcome)),
		FailureReason: optional(st.FailureReason),
		Payload:       optional(st.Payload),
	}
	if st.Result != nil {
		res := toRedeemResponse(st.Result)
		out.Result = &res
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
