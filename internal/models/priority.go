package models

import (
	"encoding/json"
	"strings"
)

// Priority is an ordered task priority: Low < Normal < High < Critical.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// ParsePriority coerces user input to a priority. Unknown values fall back
// to PriorityNormal rather than failing; priority is not a critical field.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "normal", "medium", "":
		return PriorityNormal
	case "high":
		return PriorityHigh
	case "critical", "urgent":
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

// AllPriorities returns every priority level in ascending order.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			*p = PriorityNormal
			return nil
		}
		if v := Priority(n); v.Valid() {
			*p = v
		} else {
			*p = PriorityNormal
		}
		return nil
	}
	*p = ParsePriority(s)
	return nil
}
