// Package support forwards support tickets to the external helpdesk API.
package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	requestTimeout  = 10 * time.Second
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

var ErrDisabled = errors.New("support ticket endpoint is not configured")

type Ticket struct {
	Severity    string `json:"severity"`
	IssueType   string `json:"issueType"`
	Message     string `json:"message"`
	Email       string `json:"email"`
	WorkspaceID string `json:"workspaceId"`
	OrgID       string `json:"orgId,omitempty"`
}

type Client struct {
	url        string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(cfg config.SupportConfig) *Client {
	return &Client{
		url:        cfg.URL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "support",
			Timeout: breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logrus.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Support circuit breaker changed state")
			},
		}),
	}
}

func (c *Client) Enabled() bool {
	return c.url != ""
}

// CreateTicket posts the ticket. Non-2xx answers count as breaker failures.
func (c *Client) CreateTicket(ctx context.Context, ticket *Ticket) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	body, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("support api responded with %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
