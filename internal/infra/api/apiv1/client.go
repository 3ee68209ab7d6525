package apiv1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"conference-checkin/internal/domain/model"
)

// RedeemClient calls POST /api/v1/redeem on a remote server. It satisfies the
// scanner's Redeemer, so a kiosk can scan locally and redeem centrally.
type RedeemClient struct {
	baseURL     string
	http        *http.Client
	internalMsg string
}

// NewRedeemClient: internalMsg is reported when the server cannot be reached.
func NewRedeemClient(baseURL string, httpClient *http.Client, internalMsg string) *RedeemClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RedeemClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        httpClient,
		internalMsg: internalMsg,
	}
}

func (c *RedeemClient) Redeem(ctx context.Context, code string) *model.RedemptionResult {
	res, err := c.redeem(ctx, code)
	if err != nil {
		return &model.RedemptionResult{Reason: model.ReasonInternalError, Message: c.internalMsg}
	}
	return res
}

func (c *RedeemClient) redeem(ctx context.Context, code string) (*model.RedemptionResult, error) {
	body, err := json.Marshal(RedeemCodeJSONRequestBody{Code: code})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/redeem", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e Error
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Message != "" {
			return &model.RedemptionResult{Reason: model.ReasonInternalError, Message: e.Message}, nil
		}
		return nil, fmt.Errorf("redeem: unexpected status %s", resp.Status)
	}

	var out RedeemResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("redeem: decode: %w", err)
	}
	return fromRedeemResponse(out), nil
}

func fromRedeemResponse(r RedeemResponse) *model.RedemptionResult {
	res := &model.RedemptionResult{Success: r.Success, Message: r.Message, RedeemedAt: r.RedeemedAt}
	if r.Reason != nil {
		res.Reason = model.RedemptionReason(*r.Reason)
	}
	if r.ParticipantName != nil {
		res.ParticipantName = *r.ParticipantName
	}
	if r.ParticipantEmail != nil {
		res.ParticipantEmail = *r.ParticipantEmail
	}
	if r.AttendanceId != nil {
		res.AttendanceID = *r.AttendanceId
	}
	return res
}
