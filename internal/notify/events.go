package notify

// Event type tags pushed over a user's live channel.
const (
	EventConnected    = "connected"
	EventInitial      = "initial"
	EventNotification = "notification"
)

// Event is the JSON-shaped payload of one live push. Data carries the
// notification record(s); Message carries human-readable status text.
type Event struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
