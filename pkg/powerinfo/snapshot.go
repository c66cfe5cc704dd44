package powerinfo

import "time"

// Snapshot is the last state shown by the indicator. It is served by the
// status API and decoded by the client.
type Snapshot struct {
	BatteryID string    `json:"batteryId,omitempty"`
	ACOnly    bool      `json:"acOnly"`
	Status    string    `json:"status"`
	Display   string    `json:"display"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	UpdatedAt time.Time `json:"updatedAt"`
}
