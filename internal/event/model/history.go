// SPDX-License-Identifier: MIT

package model

import "time"

// EndReason states why an event was terminated.
type EndReason string

const (
	ReasonExpired   EndReason = "EXPIRED"
	ReasonCompleted EndReason = "COMPLETED"
	ReasonForced    EndReason = "FORCED"
)

// HistoryEntry summarizes a terminated event.
type HistoryEntry struct {
	EventID      string    `json:"eventId"`
	Kind         EventKind `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	Reason       EndReason `json:"reason,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	Winners      []string  `json:"winners,omitempty"`
}

// UserPreferences holds per-user event opt-outs.
type UserPreferences struct {
	DisableMysteryBox bool `json:"disableMysteryBox,omitempty"`
	DisableImpostor   bool `json:"disableImpostor,omitempty"`
}

// EventsData is the store root for the JSON file backend.
type EventsData struct {
	ActiveEvents    []*ActiveEvent             `json:"activeEvents"`
	History         []HistoryEntry             `json:"history,omitempty"`
	UserPreferences map[string]UserPreferences `json:"userPreferences,omitempty"`
}
