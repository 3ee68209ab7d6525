//go:build !integration

package apiv1_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apiv1 "conference-checkin/internal/infra/api/apiv1"
	"conference-checkin/internal/domain/model"
)

func TestRedeemClient(t *testing.T) {
	t.Run("round trip through the real handler", func(t *testing.T) {
		srv := httptest.NewServer(newRouter(t))
		defer srv.Close()
		c := apiv1.NewRedeemClient(srv.URL+"/", srv.Client(), "offline")

		first := c.Redeem(context.Background(), "PART004")
		if !first.Success || first.ParticipantName != "Ana Martínez" || first.AttendanceID == "" {
			t.Fatalf("first = %+v", first)
		}
		second := c.Redeem(context.Background(), "PART004")
		if second.Success || second.Reason != model.ReasonAlreadyUsed {
			t.Fatalf("second = %+v", second)
		}
	})

	t.Run("unreachable server is an internal error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := apiv1.NewRedeemClient(srv.URL, nil, "offline")

		res := c.Redeem(context.Background(), "PART001")
		if res.Success || res.Reason != model.ReasonInternalError || res.Message != "offline" {
			t.Fatalf("res = %+v", res)
		}
	})

	t.Run("error body message is surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"too many requests"}`))
		}))
		defer srv.Close()
		c := apiv1.NewRedeemClient(srv.URL, srv.Client(), "offline")

		res := c.Redeem(context.Background(), "PART001")
		if res.Reason != model.ReasonInternalError || res.Message != "too many requests" {
			t.Fatalf("res = %+v", res)
		}
	})
}
