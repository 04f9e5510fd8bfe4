package models

import (
	"encoding/json"
	"time"
)

// HistoryKind names an input history list.
type HistoryKind string

const (
	HistoryText    HistoryKind = "text"
	HistoryZIP     HistoryKind = "zip"
	HistoryAddress HistoryKind = "address"
)

// Valid reports whether k is a known history list.
func (k HistoryKind) Valid() bool {
	switch k {
	case HistoryText, HistoryZIP, HistoryAddress:
		return true
	}
	return false
}

// HistoryEntry is one remembered input value.
type HistoryEntry struct {
	Kind   HistoryKind `json:"kind"`
	Value  string      `json:"value"`
	UsedAt time.Time   `json:"usedAt"`
}

// SavedSettings is a named snapshot of the form, stored as opaque JSON.
type SavedSettings struct {
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
