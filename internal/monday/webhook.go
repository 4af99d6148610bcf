// Package monday integrates with the Monday.com platform. This file defines
// the inbound webhook payload shapes and the normalization into one
// canonical event.
//
// Monday.com has delivered two schema variants over time:
//
//   - a legacy explicit shape carrying event fields under event.data
//     (item_id, item_name, board_id, group_id, column_values), and
//   - a flattened shape with pulse-era field names on the event itself
//     (pulseId, pulseName, boardId, groupId).
//
// Normalize resolves both to a single Event, preferring the explicit data
// fields when both are present. Event types outside the recognized set are
// reported as not applicable rather than as errors; the processor skips
// them. A challenge payload is handled upstream of normalization entirely.
package monday

import "encoding/json"

// Canonical event types produced by Normalize.
const (
	EventCreateItem = "create_item"
	EventUpdateItem = "update_item"
)

// WebhookPayload is the raw inbound webhook body. Exactly one of Challenge
// or Event is expected; a challenge must be echoed back verbatim before any
// further validation.
type WebhookPayload struct {
	Challenge string        `json:"challenge,omitempty"`
	Event     *WebhookEvent `json:"event,omitempty"`
}

// WebhookEvent is the discriminated union of the two vendor schema variants.
// Type is the discriminator; the remaining fields belong to one variant or
// the other and are resolved by Normalize.
type WebhookEvent struct {
	Type string `json:"type"`

	// Legacy explicit variant.
	Data *EventData `json:"data,omitempty"`

	// Flattened pulse-era variant. Numeric identifiers arrive as JSON
	// numbers, hence json.Number.
	PulseID   json.Number `json:"pulseId,omitempty"`
	PulseName string      `json:"pulseName,omitempty"`
	BoardID   json.Number `json:"boardId,omitempty"`
	GroupID   string      `json:"groupId,omitempty"`
}

// EventData carries the legacy explicit event fields.
type EventData struct {
	ItemID       string        `json:"item_id"`
	ItemName     string        `json:"item_name"`
	BoardID      string        `json:"board_id"`
	GroupID      string        `json:"group_id"`
	ColumnValues []ColumnValue `json:"column_values,omitempty"`
}

// Event is the canonical normalized webhook event. All identifiers are
// strings regardless of which wire variant carried them.
type Event struct {
	Type         string
	ItemID       string
	ItemName     string
	BoardID      string
	GroupID      string
	ColumnValues []ColumnValue
}

// Normalize maps a raw WebhookEvent onto the canonical Event shape. The
// second return value is false when the event type is not one the backend
// acts on ("not applicable"); that outcome is not an error.
//
// Field resolution prefers the legacy explicit data fields and falls back to
// the flattened pulse fields per field, so partially filled payloads still
// normalize.
func Normalize(raw *WebhookEvent) (*Event, bool) {
	if raw == nil {
		return nil, false
	}

	var typ string
	switch raw.Type {
	case "create_item", "create_pulse":
		typ = EventCreateItem
	case "update_item", "update_pulse":
		typ = EventUpdateItem
	default:
		// Unrecognized vendor event type: not applicable. New types must be
		// added to the switch above before the processor can act on them.
		return nil, false
	}

	ev := &Event{
		Type:     typ,
		ItemID:   raw.PulseID.String(),
		ItemName: raw.PulseName,
		BoardID:  raw.BoardID.String(),
		GroupID:  raw.GroupID,
	}
	if raw.Data != nil {
		if raw.Data.ItemID != "" {
			ev.ItemID = raw.Data.ItemID
		}
		if raw.Data.ItemName != "" {
			ev.ItemName = raw.Data.ItemName
		}
		if raw.Data.BoardID != "" {
			ev.BoardID = raw.Data.BoardID
		}
		if raw.Data.GroupID != "" {
			ev.GroupID = raw.Data.GroupID
		}
		ev.ColumnValues = raw.Data.ColumnValues
	}
	return ev, true
}
