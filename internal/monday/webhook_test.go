package monday

import (
	"encoding/json"
	"testing"
)

func TestNormalize_FlattenedCreatePulse(t *testing.T) {
	var p WebhookPayload
	raw := `{"event":{"type":"create_pulse","pulseId":123,"pulseName":"Widget","boardId":456,"groupId":"g1"}}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ev, ok := Normalize(p.Event)
	if !ok {
		t.Fatalf("expected applicable event")
	}
	if ev.Type != EventCreateItem {
		t.Fatalf("Type = %q, want %q", ev.Type, EventCreateItem)
	}
	if ev.ItemID != "123" || ev.ItemName != "Widget" || ev.BoardID != "456" || ev.GroupID != "g1" {
		t.Fatalf("unexpected canonical fields: %+v", ev)
	}
}

func TestNormalize_LegacyDataShape(t *testing.T) {
	ev, ok := Normalize(&WebhookEvent{
		Type: "create_item",
		Data: &EventData{
			ItemID:   "77",
			ItemName: "Crates",
			BoardID:  "9",
			GroupID:  "topics",
			ColumnValues: []ColumnValue{
				{ID: "text_col", Text: "hello"},
			},
		},
	})
	if !ok {
		t.Fatalf("expected applicable event")
	}
	if ev.Type != EventCreateItem || ev.ItemID != "77" || ev.ItemName != "Crates" || ev.BoardID != "9" {
		t.Fatalf("unexpected canonical fields: %+v", ev)
	}
	if len(ev.ColumnValues) != 1 || ev.ColumnValues[0].ID != "text_col" {
		t.Fatalf("column values not carried: %+v", ev.ColumnValues)
	}
}

func TestNormalize_PrefersExplicitDataOverFlattened(t *testing.T) {
	ev, ok := Normalize(&WebhookEvent{
		Type:      "create_item",
		Data:      &EventData{ItemID: "explicit", ItemName: "Explicit"},
		PulseID:   json.Number("999"),
		PulseName: "Flattened",
		BoardID:   json.Number("5"),
	})
	if !ok {
		t.Fatalf("expected applicable event")
	}
	if ev.ItemID != "explicit" || ev.ItemName != "Explicit" {
		t.Fatalf("legacy data fields must win: %+v", ev)
	}
	// Fields absent from data fall back to the flattened variant.
	if ev.BoardID != "5" {
		t.Fatalf("expected per-field fallback to flattened boardId, got %q", ev.BoardID)
	}
}

func TestNormalize_UpdateVariants(t *testing.T) {
	for _, typ := range []string{"update_item", "update_pulse"} {
		ev, ok := Normalize(&WebhookEvent{Type: typ, PulseID: json.Number("1")})
		if !ok || ev.Type != EventUpdateItem {
			t.Fatalf("type %q: ok=%v ev=%+v", typ, ok, ev)
		}
	}
}

func TestNormalize_NotApplicable(t *testing.T) {
	cases := []*WebhookEvent{
		nil,
		{Type: ""},
		{Type: "change_column_value"},
		{Type: "delete_pulse"},
	}
	for i, raw := range cases {
		if ev, ok := Normalize(raw); ok {
			t.Fatalf("case %d: expected not applicable, got %+v", i, ev)
		}
	}
}

func TestWebhookPayload_ChallengeRoundTrip(t *testing.T) {
	var p WebhookPayload
	if err := json.Unmarshal([]byte(`{"challenge":"abc123"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Challenge != "abc123" || p.Event != nil {
		t.Fatalf("unexpected payload: %+v", p)
	}
}
