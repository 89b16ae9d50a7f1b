package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.PublishMaintenance(context.Background(), MaintenanceEvent{Mode: "all"}); err != nil {
		t.Errorf("PublishMaintenance: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestMaintenanceEventJSON(t *testing.T) {
	event := MaintenanceEvent{
		Mode:    "day",
		Day:     "2025-03-10",
		Actor:   "maria@plant.test",
		Removed: 3,
		At:      time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["mode"] != "day" || fields["removed"] != float64(3) || fields["completed"] != false {
		t.Errorf("unexpected payload %s", data)
	}
	if _, ok := fields["error"]; ok {
		t.Errorf("empty error should be omitted: %s", data)
	}
}
