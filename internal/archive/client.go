// Package archive searches the mailbox that receives reservation
// confirmations from the booking platform.
package archive

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/httpclient"
)

const channel = "archive"

// Message is one archived message header
type Message struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Query selects messages from the archive, newest first
type Query struct {
	Sender string
	After  time.Time
	Before time.Time
	Limit  int
}

// Client searches the message archive
type Client interface {
	// Search returns at most q.Limit messages, newest first
	Search(ctx context.Context, q Query) ([]Message, error)
	// MarkRead flags a message as handled in the mailbox
	MarkRead(ctx context.Context, id string) error
}

type searchResponse struct {
	Messages []Message `json:"messages"`
}

// HTTPClient talks to the archive's JSON API
type HTTPClient struct {
	endpoint string
	client   httpclient.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an archive client over an already authenticated transport
func NewHTTPClient(endpoint string, client httpclient.Client) *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
	}
}

// NewFromConfig creates an archive client that authenticates with OAuth2
// client credentials
func NewFromConfig(ctx context.Context, cfg *config.ArchiveConfig) (*HTTPClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("archive configuration is required")
	}
	secret, err := cfg.GetClientSecret()
	if err != nil {
		return nil, err
	}

	base := &http.Client{Timeout: cfg.GetTimeout()}
	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: secret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	authenticated := creds.Client(context.WithValue(ctx, oauth2.HTTPClient, base))

	transport := httpclient.NewDefaultClient(cfg.GetTimeout(), httpclient.WithHTTPClient(authenticated))
	return NewHTTPClient(cfg.Endpoint, transport), nil
}

// Search implements Client
func (c *HTTPClient) Search(ctx context.Context, q Query) ([]Message, error) {
	params := url.Values{}
	if q.Sender != "" {
		params.Set("from", q.Sender)
	}
	if !q.After.IsZero() {
		params.Set("after", q.After.UTC().Format(time.RFC3339))
	}
	if !q.Before.IsZero() {
		params.Set("before", q.Before.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	body, err := c.client.Get(ctx, c.endpoint+"/messages?"+params.Encode())
	if err != nil {
		return nil, &booking.TransientChannelError{Channel: channel, Err: err}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &booking.MalformedInputError{Source: "archive response", Reason: err.Error()}
	}
	if q.Limit > 0 && len(resp.Messages) > q.Limit {
		resp.Messages = resp.Messages[:q.Limit]
	}
	return resp.Messages, nil
}

// MarkRead implements Client
func (c *HTTPClient) MarkRead(ctx context.Context, id string) error {
	_, err := c.client.PostForm(ctx, c.endpoint+"/messages/"+url.PathEscape(id)+"/read", url.Values{})
	if err != nil {
		return &booking.TransientChannelError{Channel: channel, Err: err}
	}
	return nil
}
