package coordinator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/colony"
)

// eventRecord is the JSON document written per event, one file per event
// keyed by the zero-padded tick.
type eventRecord struct {
	ColonyInstanceID string           `json:"colony_instance_id"`
	Tick             uint64           `json:"tick"`
	EventType        string           `json:"event_type"`
	EventDescription string           `json:"event_description"`
	EventData        *colony.Event    `json:"event_data,omitempty"`
	Rules            colony.LifeRules `json:"rules"`
}

// writeEventLog records one event under
// <output>/<instance>/events/event_<tick>.json. Disabled without an output
// directory; failures are logged, never fatal.
func (c *Context) writeEventLog(event colony.Event, tick uint64) {
	record := eventRecord{
		Tick:             tick,
		EventType:        event.Type.String(),
		EventDescription: event.Describe(),
		EventData:        &event,
		Rules:            c.Rules(),
	}
	c.writeEventRecord(record, fmt.Sprintf("event_%07d.json", tick))
}

// writeColonyCreatedEvent records the synthetic creation event emitted once
// after successful initialization.
func (c *Context) writeColonyCreatedEvent() {
	record := eventRecord{
		Tick:             1,
		EventType:        "ColonyCreated",
		EventDescription: "Colony Created",
		Rules:            c.Rules(),
	}
	c.writeEventRecord(record, fmt.Sprintf("event_%07d.json", 1))
}

func (c *Context) writeEventRecord(record eventRecord, filename string) {
	if c.cfg.OutputDir == "" {
		return
	}
	record.ColonyInstanceID = c.InstanceID()
	if record.ColonyInstanceID == "" {
		return
	}

	dir := filepath.Join(c.cfg.OutputDir, record.ColonyInstanceID, "events")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn("event log directory not created", zap.Error(err))
		return
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		c.log.Warn("event record not encoded", zap.Error(err))
		return
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.log.Warn("event record not written", zap.String("path", path), zap.Error(err))
		return
	}
	c.log.Info("event recorded", zap.String("path", path))
}
