package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return TableSettings
}

// Known setting keys
const (
	// Set once the default exercises have been seeded, so renamed or deleted
	// defaults are not recreated on the next start.
	SettingKeyDefaultsSeeded = "defaults_seeded"

	// Daily plan reminder, overriding the configured values
	SettingKeyReminderEnabled  = "reminder_enabled"
	SettingKeyReminderSchedule = "reminder_schedule"

	// Daily plan digest
	SettingKeyDigestLastAt      = "digest_last_at"
	SettingKeyDigestLastDate    = "digest_last_date"
	SettingKeyDigestLastSummary = "digest_last_summary"
)
