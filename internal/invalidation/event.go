// Package invalidation defines the event shape consumed from the
// invalidation topic.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Event announces that data inside some cells changed and cached coverings
// touching them must be dropped. Either Tokens names the cells directly, or
// BBox describes the affected area and the consumer resolves it to cells at
// Precision.
type Event struct {
	Version   int       `json:"version"`
	Op        string    `json:"op"`
	Scheme    string    `json:"scheme"`
	Tokens    []string  `json:"tokens,omitempty"`
	BBox      *BBox     `json:"bbox,omitempty"`
	Precision int       `json:"precision,omitempty"`
	Seq       uint64    `json:"seq"`
	TS        time.Time `json:"ts"`
}

type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if e.Op != "invalidate" {
		return fmt.Errorf("op must be invalidate")
	}
	if strings.TrimSpace(e.Scheme) == "" {
		return fmt.Errorf("scheme is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	hasTokens := len(e.Tokens) > 0
	hasBBox := e.BBox != nil
	if hasTokens == hasBBox {
		return fmt.Errorf("exactly one of tokens or bbox is required")
	}
	if hasTokens {
		for _, tok := range e.Tokens {
			if strings.TrimSpace(tok) == "" {
				return fmt.Errorf("tokens must be non-empty")
			}
		}
		return nil
	}
	bb := *e.BBox
	if !(bb.West >= -180 && bb.West <= 180 && bb.East >= -180 && bb.East <= 180) {
		return fmt.Errorf("bbox longitude out of range")
	}
	if !(bb.South >= -90 && bb.South <= 90 && bb.North >= -90 && bb.North <= 90) {
		return fmt.Errorf("bbox latitude out of range")
	}
	if bb.North <= bb.South {
		return fmt.Errorf("bbox must satisfy north>south")
	}
	if e.Precision < 0 {
		return fmt.Errorf("precision must be non-negative")
	}
	return nil
}
