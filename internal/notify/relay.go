// internal/notify/relay.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"shelfmark/internal/config"
)

// relayNotifier posts messages to an HTTP mail relay. Outbound traffic
// is paced so a reminder sweep cannot flood the relay.
type relayNotifier struct {
	endpoint string
	token    string
	fromName string
	client   *http.Client
	limiter  *rate.Limiter
	log      *emailLog
}

func newRelayNotifier(cfg config.Mail, emailLog *emailLog) *relayNotifier {
	return &relayNotifier{
		endpoint: cfg.RelayURL,
		token:    cfg.Token,
		fromName: cfg.FromName,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
		log:      emailLog,
	}
}

func (n *relayNotifier) Send(ctx context.Context, email Email) error {
	if err := n.limiter.Wait(ctx); err != nil {
		n.log.record(ctx, email, "failed", err.Error())
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload := struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}{
		From:    n.fromName,
		To:      email.To,
		Subject: email.Subject,
		Body:    email.Body,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.record(ctx, email, "failed", err.Error())
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(body))
	if err != nil {
		n.log.record(ctx, email, "failed", err.Error())
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.record(ctx, email, "failed", err.Error())
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		n.log.record(ctx, email, "failed", errMsg)
		return fmt.Errorf("send mail: %s", errMsg)
	}

	n.log.record(ctx, email, "sent", "")
	return nil
}
