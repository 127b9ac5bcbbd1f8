package app

import (
	"github.com/pickarooms/reservations-server/internal/commands"
	"github.com/pickarooms/reservations-server/internal/enrichment"
	"github.com/pickarooms/reservations-server/internal/spreadsheet"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Store is the canonical booking store
	Store store.Store

	// SyncCoordinator manages background feed synchronization
	SyncCoordinator coordinator.Coordinator

	// EnrichmentScheduler looks up references of skeletal rows (optional)
	EnrichmentScheduler *enrichment.Scheduler

	// CommandChannel serializes operator commands
	CommandChannel *commands.Channel

	// SpreadsheetWatcher picks up dropped exports (optional)
	SpreadsheetWatcher *spreadsheet.Watcher
}
