package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pickarooms/reservations-server/internal/booking"
)

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if len(c.Resources) == 0 {
		return fmt.Errorf("at least one resource must be configured")
	}

	ids := make(map[string]bool)
	numbers := make(map[int]bool)
	unitTypes := make(map[string]string)
	for i, res := range c.Resources {
		if res.ID == "" {
			return fmt.Errorf("resource[%d]: id is required", i)
		}
		if ids[res.ID] {
			return fmt.Errorf("resource[%d]: duplicate resource id '%s'", i, res.ID)
		}
		ids[res.ID] = true

		if res.Number <= 0 {
			return fmt.Errorf("resource[%d] (%s): number must be positive", i, res.ID)
		}
		if numbers[res.Number] {
			return fmt.Errorf("resource[%d] (%s): duplicate resource number %d", i, res.ID, res.Number)
		}
		numbers[res.Number] = true

		for _, raw := range res.UnitTypes {
			label := strings.ToLower(strings.TrimSpace(raw))
			if owner, ok := unitTypes[label]; ok {
				return fmt.Errorf("resource[%d] (%s): unit type '%s' already mapped to %s", i, res.ID, label, owner)
			}
			unitTypes[label] = res.ID
		}

		if err := validateFeeds(&res, i); err != nil {
			return err
		}
	}

	if err := c.validateEnrichment(); err != nil {
		return err
	}

	if c.Archive != nil {
		if err := validateEndpoint(c.Archive.Endpoint, "archive"); err != nil {
			return err
		}
	}
	if c.Locks != nil {
		if err := validateEndpoint(c.Locks.Endpoint, "locks"); err != nil {
			return err
		}
		if c.Locks.CodeLength != 0 && (c.Locks.CodeLength < 4 || c.Locks.CodeLength > 9) {
			return fmt.Errorf("locks: codeLength must be between 4 and 9")
		}
	}
	if c.Notifier != nil {
		if err := validateEndpoint(c.Notifier.Endpoint, "notifier"); err != nil {
			return err
		}
	}

	switch c.GetStorageType() {
	case StorageTypeMemory:
	case StorageTypeDatabase:
		if c.Database == nil {
			return fmt.Errorf("storage: database configuration is required for storage type '%s'", StorageTypeDatabase)
		}
	default:
		return fmt.Errorf("storage: unsupported type '%s'", c.Storage.Type)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateFeeds validates the feeds of a single resource
func validateFeeds(res *ResourceConfig, index int) error {
	prefix := fmt.Sprintf("resource[%d] (%s)", index, res.ID)
	channels := make(map[string]bool)

	for j, feed := range res.Feeds {
		channel, err := booking.ParseChannel(feed.Channel)
		if err != nil {
			return fmt.Errorf("%s: feed[%d]: %w", prefix, j, err)
		}
		if channel == booking.ChannelSpreadsheet || channel == booking.ChannelManual {
			return fmt.Errorf("%s: feed[%d]: channel '%s' cannot be used for calendar feeds", prefix, j, channel)
		}
		if channels[feed.Channel] {
			return fmt.Errorf("%s: feed[%d]: duplicate feed for channel '%s'", prefix, j, feed.Channel)
		}
		channels[feed.Channel] = true

		if err := validateEndpoint(feed.URL, fmt.Sprintf("%s: feed[%d]", prefix, j)); err != nil {
			return err
		}
		if feed.Interval != "" {
			if _, err := time.ParseDuration(feed.Interval); err != nil {
				return fmt.Errorf("%s: feed[%d]: invalid interval '%s': %w", prefix, j, feed.Interval, err)
			}
		}
	}

	return nil
}

// validateEnrichment checks the retry schedule is parseable and increasing
func (c *Config) validateEnrichment() error {
	if c.Enrichment == nil {
		return nil
	}
	var prev time.Duration
	for i, s := range c.Enrichment.RetrySchedule {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("enrichment: retrySchedule[%d]: invalid duration '%s': %w", i, s, err)
		}
		if d <= prev {
			return fmt.Errorf("enrichment: retrySchedule[%d]: delays must be strictly increasing", i)
		}
		prev = d
	}
	return nil
}

func validateEndpoint(endpoint, prefix string) error {
	if endpoint == "" {
		return fmt.Errorf("%s: endpoint is required", prefix)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%s: invalid endpoint: %w", prefix, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: endpoint must use http or https", prefix)
	}
	return nil
}
