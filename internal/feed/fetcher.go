package feed

import (
	"context"
	"log/slog"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/httpclient"
)

// Fetcher downloads calendar feeds
type Fetcher struct {
	client httpclient.Client
}

// NewFetcher creates a fetcher using client for transport
func NewFetcher(client httpclient.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads the feed at url. Any failure is reported as a
// TransientChannelError so callers keep existing rows and retry later.
func (f *Fetcher) Fetch(ctx context.Context, channel booking.Channel, url string) ([]byte, error) {
	data, err := f.client.Get(ctx, url)
	if err != nil {
		slog.Warn("Failed to fetch calendar feed", "channel", channel, "error", err)
		return nil, &booking.TransientChannelError{Channel: string(channel), Err: err}
	}
	return data, nil
}

// FetchAndParse downloads and decodes a feed
func (f *Fetcher) FetchAndParse(ctx context.Context, channel booking.Channel, url string) (*Result, error) {
	data, err := f.Fetch(ctx, channel, url)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
