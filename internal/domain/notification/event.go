package notification

import (
	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

// Event is the unit handed to the dispatcher. Ephemeral: it is never
// persisted as-is, only its per-recipient in-app deliveries are.
type Event struct {
	Type     EventType
	Title    string
	Message  string
	SenderID *string
	Data     map[string]interface{}

	// Recipient set: explicit ids, a role-based set, or both.
	Recipients    []string
	RecipientRole *user.Role

	// Alert is set for EventAlertRaised; its configuration selects the
	// delivery channels.
	Alert *alert.Alert
}

// DeliveryFailure records one failed (recipient, channel) delivery
type DeliveryFailure struct {
	RecipientID string  `json:"recipient_id"`
	Channel     Channel `json:"channel"`
	Error       string  `json:"error"`
}

// DeliveryReport summarizes a dispatch. Failures are informational; the
// triggering operation has already succeeded by the time delivery runs.
type DeliveryReport struct {
	Delivered int               `json:"delivered"`
	Failed    int               `json:"failed"`
	Failures  []DeliveryFailure `json:"failures,omitempty"`
}
