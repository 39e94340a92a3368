package config

import (
	"fmt"
	"time"
)

// Reminder wait modes. Calendar counts every day; business counts weekdays only.
const (
	WaitModeCalendar = "calendar"
	WaitModeBusiness = "business"
)

// SchedulerConfig holds the cadence and bounds of the background cycles
// (full sync, roster sync, reminder sweep).
type SchedulerConfig struct {
	// FullSyncInterval is how often the remote open-PR listing is re-pulled.
	FullSyncInterval time.Duration
	// RosterSyncInterval is how often team rosters are re-pulled.
	RosterSyncInterval time.Duration
	// ReminderInterval is how often the reminder sweep runs.
	ReminderInterval time.Duration
	// CycleTimeout bounds a single cycle of any background task.
	CycleTimeout time.Duration
	// PageSize is the remote listing page size.
	PageSize int
	// ReminderWaitMode selects how review wait is measured (calendar, business).
	ReminderWaitMode string
	// ReleaseOnRosterRemoval controls whether a reviewer dropped from the
	// roster has their open assignments released. Off pending a product
	// decision; inactive reviewers simply stop receiving new assignments.
	ReleaseOnRosterRemoval bool
}

// LoadSchedulerConfigFromEnv loads scheduler configuration from environment variables.
func LoadSchedulerConfigFromEnv() SchedulerConfig {
	return SchedulerConfig{
		FullSyncInterval:       GetEnvDuration("FULL_SYNC_INTERVAL", time.Hour),
		RosterSyncInterval:     GetEnvDuration("ROSTER_SYNC_INTERVAL", 6*time.Hour),
		ReminderInterval:       GetEnvDuration("REMINDER_INTERVAL", time.Hour),
		CycleTimeout:           GetEnvDuration("CYCLE_TIMEOUT", 10*time.Minute),
		PageSize:               GetEnvInt("REMOTE_PAGE_SIZE", 100),
		ReminderWaitMode:       GetEnv("REMINDER_WAIT_MODE", WaitModeCalendar),
		ReleaseOnRosterRemoval: GetEnvBool("RELEASE_ON_ROSTER_REMOVAL", false),
	}
}

// Validate validates scheduler configuration.
func (c SchedulerConfig) Validate() error {
	if c.FullSyncInterval <= 0 {
		return fmt.Errorf("FullSyncInterval must be greater than 0")
	}
	if c.RosterSyncInterval <= 0 {
		return fmt.Errorf("RosterSyncInterval must be greater than 0")
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("ReminderInterval must be greater than 0")
	}
	if c.CycleTimeout <= 0 {
		return fmt.Errorf("CycleTimeout must be greater than 0")
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("PageSize must be between 1 and 100")
	}
	if c.ReminderWaitMode != WaitModeCalendar && c.ReminderWaitMode != WaitModeBusiness {
		return fmt.Errorf("invalid REMINDER_WAIT_MODE: %s (must be: calendar, business)", c.ReminderWaitMode)
	}
	return nil
}
