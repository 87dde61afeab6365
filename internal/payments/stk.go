// internal/payments/stk.go
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shelfmark/internal/config"
)

// stkClient posts a CustomerPayBillOnline request to the configured
// provider endpoint, prompting the student's phone for payment.
type stkClient struct {
	cfg    config.MPesa
	client *http.Client
}

func newSTKClient(cfg config.MPesa) *stkClient {
	return &stkClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type stkRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
}

func (c *stkClient) Initiate(ctx context.Context, phone string, amount int) (*Result, error) {
	payload := stkRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.cfg.PassKey,
		Timestamp:         time.Now().UTC().Format("20060102150405"),
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.BusinessNumber,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  "LibraryFine",
		TransactionDesc:   "Library fine payment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal STK request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build STK request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send STK request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var stk stkResponse
	if err := json.NewDecoder(resp.Body).Decode(&stk); err != nil {
		return nil, fmt.Errorf("decode STK response: %w", err)
	}

	result := &Result{
		Status:    "sent",
		Reference: stk.CheckoutRequestID,
	}
	if stk.ResponseCode != "0" && stk.ResponseCode != "" {
		result.Status = "rejected"
	}
	return result, nil
}
