package config

import "time"

type Config interface {
	UpdateInterval() time.Duration
	LowLevel() int
	CriticalLevel() int
	HideNotifications() bool
	LeftClickCommand() string
	Notifier() string
	StatusSocket() string
	SysfsPath() string

	SetUpdateInterval(time.Duration)
	SetLowLevel(int)
	SetCriticalLevel(int)
	SetHideNotifications(bool)
	SetLeftClickCommand(string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
