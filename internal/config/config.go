// Package config provides configuration loading and management for the reservations server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/telemetry"
)

const (
	// EnvPrefix is the prefix of environment variables read by the server
	EnvPrefix = "RESERVATIONS"

	// DefaultTimezone is the operating timezone used for calendar-date decisions
	DefaultTimezone = "Europe/London"

	// StorageTypeMemory keeps all state in process memory
	StorageTypeMemory = "memory"

	// StorageTypeDatabase keeps all state in PostgreSQL
	StorageTypeDatabase = "database"
)

const (
	defaultFeedInterval        = 10 * time.Minute
	defaultSyncWorkers         = 4
	defaultPollInterval        = 2 * time.Minute
	defaultArchiveSender       = "noreply@booking.com"
	defaultArchiveLookbackDays = 30
	defaultArchiveMaxResults   = 20
	defaultCollisionMaxResults = 30
	defaultExternalTimeout     = 30 * time.Second
	defaultCodeLength          = 4
	defaultCheckinFlowTTL      = 30 * time.Minute
	defaultLogTTL              = 7 * 24 * time.Hour
	defaultMaxLogEntries       = 1000
	defaultCancelledGraceDays  = 7
	defaultUnenrichedGraceDays = 30
	defaultRetentionInterval   = 24 * time.Hour
)

// DefaultRetrySchedule is the set of delays after row creation at which a
// skeletal booking is looked up in the confirmation archive.
var DefaultRetrySchedule = []time.Duration{
	5 * time.Minute,
	8 * time.Minute,
	12 * time.Minute,
	18 * time.Minute,
}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Timezone is the IANA name of the operating timezone
	// Defaults to "Europe/London" if not specified
	Timezone string `yaml:"timezone,omitempty"`

	// Resources are the bookable units (rooms) and the calendar feeds that describe them
	Resources []ResourceConfig `yaml:"resources"`

	// SharedResource is the entrance every guest needs a code for
	SharedResource *SharedResourceConfig `yaml:"sharedResource,omitempty"`

	Matching    MatchingConfig     `yaml:"matching,omitempty"`
	Spreadsheet *SpreadsheetConfig `yaml:"spreadsheet,omitempty"`
	Archive     *ArchiveConfig     `yaml:"archive,omitempty"`
	Enrichment  *EnrichmentConfig  `yaml:"enrichment,omitempty"`
	Operators   *OperatorsConfig   `yaml:"operators,omitempty"`
	Locks       *LocksConfig       `yaml:"locks,omitempty"`
	Notifier    *NotifierConfig    `yaml:"notifier,omitempty"`
	Checkin     *CheckinConfig     `yaml:"checkin,omitempty"`
	Retention   *RetentionConfig   `yaml:"retention,omitempty"`
	Sync        *SyncConfig        `yaml:"sync,omitempty"`
	Storage     *StorageConfig     `yaml:"storage,omitempty"`
	Database    *DatabaseConfig    `yaml:"database,omitempty"`
	Telemetry   *telemetry.Config  `yaml:"telemetry,omitempty"`
}

// ResourceConfig defines one bookable resource
type ResourceConfig struct {
	// ID is the stable identifier stored on booking rows
	ID string `yaml:"id"`

	// Name is the human readable name, e.g. "Room 1"
	Name string `yaml:"name"`

	// Number is the resource number operators use in commands
	Number int `yaml:"number"`

	// LockID is the identifier of the lock guarding this resource
	LockID int64 `yaml:"lockId,omitempty"`

	// UnitTypes are the spreadsheet "Unit type" labels that map to this resource
	UnitTypes []string `yaml:"unitTypes,omitempty"`

	// Feeds are the calendar feeds publishing reservations for this resource
	Feeds []FeedConfig `yaml:"feeds,omitempty"`
}

// FeedConfig defines a per-resource calendar feed
type FeedConfig struct {
	// Channel is the platform publishing the feed (booking, airbnb)
	Channel string `yaml:"channel"`

	// URL is the iCalendar export URL
	URL string `yaml:"url"`

	// Interval is the minimum time between two syncs of this feed (e.g. "10m")
	Interval string `yaml:"interval,omitempty"`
}

// SharedResourceConfig defines the shared entrance
type SharedResourceConfig struct {
	Name   string `yaml:"name"`
	LockID int64  `yaml:"lockId"`
}

// MatchingConfig tunes how feed events are matched to existing rows
type MatchingConfig struct {
	// RequireDepartureMatch additionally requires the departure date to be
	// equal before a feed event is matched to a row by reference
	RequireDepartureMatch bool `yaml:"requireDepartureMatch,omitempty"`
}

// SpreadsheetConfig defines how operator exports are picked up
type SpreadsheetConfig struct {
	// WatchDir is a directory watched for dropped .xlsx/.csv exports
	WatchDir string `yaml:"watchDir,omitempty"`
}

// ArchiveConfig defines access to the confirmation message archive
type ArchiveConfig struct {
	// Endpoint is the base URL of the archive API
	Endpoint string `yaml:"endpoint"`

	// Sender is the address whose messages carry booking confirmations
	Sender string `yaml:"sender,omitempty"`

	// TokenURL is the OAuth2 token endpoint for the client credentials flow
	TokenURL string `yaml:"tokenURL,omitempty"`

	// ClientID is the OAuth2 client id
	ClientID string `yaml:"clientID,omitempty"`

	// ClientSecretFile is the path to a file containing the OAuth2 client secret
	ClientSecretFile string `yaml:"clientSecretFile,omitempty"`

	// Scopes requested with the access token
	Scopes []string `yaml:"scopes,omitempty"`

	LookbackDays        int    `yaml:"lookbackDays,omitempty"`
	MaxResults          int    `yaml:"maxResults,omitempty"`
	CollisionMaxResults int    `yaml:"collisionMaxResults,omitempty"`
	Timeout             string `yaml:"timeout,omitempty"`
}

// EnrichmentConfig defines the enrichment retry schedule
type EnrichmentConfig struct {
	// RetrySchedule lists delays after row creation (e.g. ["5m", "8m"])
	RetrySchedule []string `yaml:"retrySchedule,omitempty"`
}

// OperatorsConfig defines who may issue commands and who receives alerts
type OperatorsConfig struct {
	AuthorizedSenders []string `yaml:"authorizedSenders,omitempty"`
	AlertRecipients   []string `yaml:"alertRecipients,omitempty"`
}

// LocksConfig defines access to the lock vendor API
type LocksConfig struct {
	Endpoint        string `yaml:"endpoint"`
	ClientID        string `yaml:"clientID"`
	AccessTokenFile string `yaml:"accessTokenFile,omitempty"`
	CodeLength      int    `yaml:"codeLength,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"`
}

// NotifierConfig defines the operator messaging gateway
type NotifierConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccountID     string `yaml:"accountID"`
	AuthTokenFile string `yaml:"authTokenFile,omitempty"`
	From          string `yaml:"from"`
}

// CheckinConfig defines guest check-in flows
type CheckinConfig struct {
	// FlowTTL is how long an unfinished check-in flow stays valid (e.g. "30m")
	FlowTTL string `yaml:"flowTTL,omitempty"`
}

// RetentionConfig defines cleanup of bounded logs and stale rows
type RetentionConfig struct {
	LogTTL              string `yaml:"logTTL,omitempty"`
	MaxLogEntries       int    `yaml:"maxLogEntries,omitempty"`
	CancelledGraceDays  int    `yaml:"cancelledGraceDays,omitempty"`
	UnenrichedGraceDays int    `yaml:"unenrichedGraceDays,omitempty"`
	Interval            string `yaml:"interval,omitempty"`
}

// SyncConfig defines the feed sync worker pool
type SyncConfig struct {
	// Workers bounds the number of feeds synced concurrently
	Workers int `yaml:"workers,omitempty"`

	// PollInterval is how often due feeds are looked for (e.g., "2m")
	PollInterval string `yaml:"pollInterval,omitempty"`
}

// StorageConfig selects the storage backend
type StorageConfig struct {
	// Type is "memory" or "database"
	Type string `yaml:"type"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// Feed is a flattened, validated feed definition
type Feed struct {
	// Name uniquely identifies the feed, "<resource>/<channel>"
	Name       string
	ResourceID string
	Channel    booking.Channel
	URL        string
	Interval   time.Duration
}

// readSecret reads a secret from file if configured, then from the environment
func readSecret(file, envVar, what string) (string, error) {
	if file != "" {
		cleanPath := filepath.Clean(file)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s from file %s: %w", what, file, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envVar); value != "" {
		return value, nil
	}

	return "", fmt.Errorf("no %s configured: set the file option or the %s environment variable", what, envVar)
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from RESERVATIONS_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readSecret(d.PasswordFile, EnvPrefix+"_DATABASE_PASSWORD", "database password")
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetAccessToken returns the lock API access token from file or RESERVATIONS_LOCKS_ACCESS_TOKEN
func (l *LocksConfig) GetAccessToken() (string, error) {
	return readSecret(l.AccessTokenFile, EnvPrefix+"_LOCKS_ACCESS_TOKEN", "lock access token")
}

// GetTimeout returns the request timeout for the lock API
func (l *LocksConfig) GetTimeout() time.Duration {
	return parseDurationOr(l.Timeout, defaultExternalTimeout)
}

// GetCodeLength returns the number of digits of generated access codes
func (l *LocksConfig) GetCodeLength() int {
	if l.CodeLength <= 0 {
		return defaultCodeLength
	}
	return l.CodeLength
}

// GetClientSecret returns the archive OAuth2 client secret from file or RESERVATIONS_ARCHIVE_CLIENT_SECRET
func (a *ArchiveConfig) GetClientSecret() (string, error) {
	return readSecret(a.ClientSecretFile, EnvPrefix+"_ARCHIVE_CLIENT_SECRET", "archive client secret")
}

// GetSender returns the address confirmations are sent from
func (a *ArchiveConfig) GetSender() string {
	if a.Sender == "" {
		return defaultArchiveSender
	}
	return a.Sender
}

// GetLookback returns how far back the archive is searched
func (a *ArchiveConfig) GetLookback() time.Duration {
	days := a.LookbackDays
	if days <= 0 {
		days = defaultArchiveLookbackDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// GetMaxResults returns the archive page size for a regular attempt
func (a *ArchiveConfig) GetMaxResults() int {
	if a.MaxResults <= 0 {
		return defaultArchiveMaxResults
	}
	return a.MaxResults
}

// GetCollisionMaxResults returns the archive page size used when a same-date collision exists
func (a *ArchiveConfig) GetCollisionMaxResults() int {
	if a.CollisionMaxResults <= 0 {
		return defaultCollisionMaxResults
	}
	return a.CollisionMaxResults
}

// GetTimeout returns the request timeout for the archive API
func (a *ArchiveConfig) GetTimeout() time.Duration {
	return parseDurationOr(a.Timeout, defaultExternalTimeout)
}

// GetAuthToken returns the notifier auth token from file or RESERVATIONS_NOTIFIER_AUTH_TOKEN
func (n *NotifierConfig) GetAuthToken() (string, error) {
	return readSecret(n.AuthTokenFile, EnvPrefix+"_NOTIFIER_AUTH_TOKEN", "notifier auth token")
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Location returns the operating timezone
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// GetStorageType returns the configured storage backend, "memory" by default
func (c *Config) GetStorageType() string {
	if c.Storage == nil || c.Storage.Type == "" {
		return StorageTypeMemory
	}
	return c.Storage.Type
}

// Feeds returns every configured feed in declaration order
func (c *Config) Feeds() []Feed {
	var feeds []Feed
	for _, res := range c.Resources {
		for _, f := range res.Feeds {
			feeds = append(feeds, Feed{
				Name:       FeedName(res.ID, f.Channel),
				ResourceID: res.ID,
				Channel:    booking.Channel(f.Channel),
				URL:        f.URL,
				Interval:   parseDurationOr(f.Interval, defaultFeedInterval),
			})
		}
	}
	return feeds
}

// FeedName builds the identifier of the feed of a resource on a channel
func FeedName(resourceID, channel string) string {
	return resourceID + "/" + channel
}

// ResourceByID returns the resource with the given id
func (c *Config) ResourceByID(id string) (*ResourceConfig, bool) {
	for i := range c.Resources {
		if c.Resources[i].ID == id {
			return &c.Resources[i], true
		}
	}
	return nil, false
}

// ResourceByNumber returns the resource operators address by number
func (c *Config) ResourceByNumber(n int) (*ResourceConfig, bool) {
	for i := range c.Resources {
		if c.Resources[i].Number == n {
			return &c.Resources[i], true
		}
	}
	return nil, false
}

// UnitTypes returns the spreadsheet unit-type label to resource id mapping.
// Labels are compared case-insensitively.
func (c *Config) UnitTypes() map[string]string {
	m := make(map[string]string)
	for _, res := range c.Resources {
		for _, label := range res.UnitTypes {
			m[strings.ToLower(strings.TrimSpace(label))] = res.ID
		}
	}
	return m
}

// GetRetrySchedule returns the enrichment retry delays
func (c *Config) GetRetrySchedule() []time.Duration {
	if c.Enrichment == nil || len(c.Enrichment.RetrySchedule) == 0 {
		return append([]time.Duration(nil), DefaultRetrySchedule...)
	}
	schedule := make([]time.Duration, 0, len(c.Enrichment.RetrySchedule))
	for _, s := range c.Enrichment.RetrySchedule {
		schedule = append(schedule, parseDurationOr(s, 0))
	}
	return schedule
}

// GetSyncWorkers returns the size of the sync worker pool
func (c *Config) GetSyncWorkers() int {
	if c.Sync == nil || c.Sync.Workers <= 0 {
		return defaultSyncWorkers
	}
	return c.Sync.Workers
}

// GetPollInterval returns the base interval of the sync coordinator loop
func (c *Config) GetPollInterval() time.Duration {
	if c.Sync == nil {
		return defaultPollInterval
	}
	return parseDurationOr(c.Sync.PollInterval, defaultPollInterval)
}

// GetCheckinFlowTTL returns the lifetime of a check-in flow
func (c *Config) GetCheckinFlowTTL() time.Duration {
	if c.Checkin == nil {
		return defaultCheckinFlowTTL
	}
	return parseDurationOr(c.Checkin.FlowTTL, defaultCheckinFlowTTL)
}

// GetRetention returns the retention settings with defaults applied
func (c *Config) GetRetention() Retention {
	r := Retention{
		LogTTL:              defaultLogTTL,
		MaxLogEntries:       defaultMaxLogEntries,
		CancelledGraceDays:  defaultCancelledGraceDays,
		UnenrichedGraceDays: defaultUnenrichedGraceDays,
		Interval:            defaultRetentionInterval,
	}
	if c.Retention == nil {
		return r
	}
	r.LogTTL = parseDurationOr(c.Retention.LogTTL, r.LogTTL)
	r.Interval = parseDurationOr(c.Retention.Interval, r.Interval)
	if c.Retention.MaxLogEntries > 0 {
		r.MaxLogEntries = c.Retention.MaxLogEntries
	}
	if c.Retention.CancelledGraceDays > 0 {
		r.CancelledGraceDays = c.Retention.CancelledGraceDays
	}
	if c.Retention.UnenrichedGraceDays > 0 {
		r.UnenrichedGraceDays = c.Retention.UnenrichedGraceDays
	}
	return r
}

// Retention is the resolved retention policy
type Retention struct {
	LogTTL              time.Duration
	MaxLogEntries       int
	CancelledGraceDays  int
	UnenrichedGraceDays int
	Interval            time.Duration
}

// GetAuthorizedSenders returns the senders allowed to issue operator commands
func (c *Config) GetAuthorizedSenders() []string {
	if c.Operators == nil {
		return nil
	}
	return c.Operators.AuthorizedSenders
}

// GetAlertRecipients returns the operators that receive alerts
func (c *Config) GetAlertRecipients() []string {
	if c.Operators == nil {
		return nil
	}
	return c.Operators.AlertRecipients
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
