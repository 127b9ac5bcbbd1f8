// Package notify delivers plain-text messages to operators and guests.
package notify

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks -source=notify.go Notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/httpclient"
)

// Notifier sends a text message to one recipient
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// GatewayNotifier posts messages to an SMS gateway with a Twilio-style API:
// POST {endpoint}/Accounts/{account}/Messages.json with To, From and Body.
type GatewayNotifier struct {
	url    string
	from   string
	client httpclient.Client
}

var _ Notifier = (*GatewayNotifier)(nil)

// NewGatewayNotifier creates a notifier over client, which must add the
// gateway credentials itself
func NewGatewayNotifier(endpoint, accountID, from string, client httpclient.Client) *GatewayNotifier {
	return &GatewayNotifier{
		url:    fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimSuffix(endpoint, "/"), url.PathEscape(accountID)),
		from:   from,
		client: client,
	}
}

// NewFromConfig builds a gateway notifier authenticating with the account id
// and auth token. A nil configuration yields a LogNotifier.
func NewFromConfig(cfg *config.NotifierConfig) (Notifier, error) {
	if cfg == nil {
		slog.Warn("No notifier configured, messages will only be logged")
		return LogNotifier{}, nil
	}
	token, err := cfg.GetAuthToken()
	if err != nil {
		return nil, err
	}
	hc := &http.Client{
		Transport: &basicAuthTransport{
			username: cfg.AccountID,
			password: token,
			next:     http.DefaultTransport,
		},
	}
	client := httpclient.NewDefaultClient(httpclient.DefaultTimeout, httpclient.WithHTTPClient(hc))
	return NewGatewayNotifier(cfg.Endpoint, cfg.AccountID, cfg.From, client), nil
}

// Send implements Notifier
func (n *GatewayNotifier) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", n.from)
	form.Set("Body", body)
	if _, err := n.client.PostForm(ctx, n.url, form); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	return nil
}

type basicAuthTransport struct {
	username string
	password string
	next     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.next.RoundTrip(clone)
}

// LogNotifier writes messages to the log instead of delivering them
type LogNotifier struct{}

// Send implements Notifier
func (LogNotifier) Send(_ context.Context, to, body string) error {
	slog.Info("Message not delivered, no notifier configured", "to", to, "body", body)
	return nil
}

// Operators fans a message out to every operator
type Operators struct {
	notifier   Notifier
	recipients []string
}

// NewOperators creates an operator alerter
func NewOperators(n Notifier, recipients []string) *Operators {
	return &Operators{notifier: n, recipients: recipients}
}

// Alert sends body to every operator. Delivery continues past failures and
// the failures are returned together.
func (o *Operators) Alert(ctx context.Context, body string) error {
	if len(o.recipients) == 0 {
		slog.Warn("Operator alert dropped, no recipients configured", "body", body)
		return nil
	}
	var errs []error
	for _, to := range o.recipients {
		if err := o.notifier.Send(ctx, to, body); err != nil {
			slog.Error("Failed to alert operator", "to", to, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
