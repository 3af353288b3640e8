package scoring

import (
	"encoding/json"
	"fmt"
	"time"
)

// checklistWire is the JSON-column representation of FaultChecklist.
type checklistWire struct {
	Flags        [9]bool   `json:"flags"`
	T0           time.Time `json:"t0,omitempty"`
	T1           time.Time `json:"t1,omitempty"`
	T2           time.Time `json:"t2,omitempty"`
	T3           time.Time `json:"t3,omitempty"`
	T4           time.Time `json:"t4,omitempty"`
	DelaySeconds int       `json:"delay_seconds"`
}

func encodeChecklist(c *FaultChecklist) ([]byte, error) {
	wire := checklistWire{
		Flags:        c.Flags,
		T0:           c.T0,
		T1:           c.T1,
		T2:           c.T2,
		T3:           c.T3,
		T4:           c.T4,
		DelaySeconds: c.DelaySeconds,
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("scoring: encode fault checklist: %w", err)
	}
	return b, nil
}

func decodeChecklist(b []byte) (*FaultChecklist, error) {
	var wire checklistWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("scoring: decode fault checklist: %w", err)
	}
	return &FaultChecklist{
		Flags:        wire.Flags,
		T0:           wire.T0,
		T1:           wire.T1,
		T2:           wire.T2,
		T3:           wire.T3,
		T4:           wire.T4,
		DelaySeconds: wire.DelaySeconds,
	}, nil
}
