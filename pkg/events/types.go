package events

import "encoding/json"

// Event name constants
const (
	StatusChanged = "status.changed"
	AlertSent     = "alert"
)

// Event is a generic SSE event from the status API.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// StatusChangedEvent is the typed payload for status.changed.
type StatusChangedEvent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Percent int    `json:"percent"`
	Ts      int64  `json:"ts"`
}

// AlertEvent is the typed payload for alert.
type AlertEvent struct {
	Message   string `json:"message"`
	Icon      string `json:"icon,omitempty"`
	TimeoutMs int64  `json:"timeoutMs"`
	Ts        int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// If Data is empty, it returns the zero value of T with a nil error.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
