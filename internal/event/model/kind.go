// SPDX-License-Identifier: MIT

// Package model defines the persistent data model of the event engine.
package model

// EventKind identifies the variant of a community event.
type EventKind string

const (
	KindRiddle           EventKind = "RIDDLE"
	KindSequence         EventKind = "SEQUENCE"
	KindCounterChallenge EventKind = "COUNTER_CHALLENGE"
	KindMiniBoss         EventKind = "MINI_BOSS"
	KindBoss             EventKind = "BOSS"
	KindMysteryBox       EventKind = "MYSTERY_BOX"
	KindImpostor         EventKind = "IMPOSTOR"
	KindServerBirthday   EventKind = "SERVER_BIRTHDAY"
	KindHoliday          EventKind = "HOLIDAY"
	KindSecretWord       EventKind = "SECRET_WORD"
)

// Kinds lists every known event kind.
var Kinds = []EventKind{
	KindRiddle,
	KindSequence,
	KindCounterChallenge,
	KindMiniBoss,
	KindBoss,
	KindMysteryBox,
	KindImpostor,
	KindServerBirthday,
	KindHoliday,
	KindSecretWord,
}

// IsSingleton reports whether at most one instance of the kind may be
// active at a time. Impostor events are keyed per impostor user instead,
// and mystery boxes are never persisted at all.
func (k EventKind) IsSingleton() bool {
	switch k {
	case KindRiddle, KindSequence, KindCounterChallenge, KindSecretWord,
		KindMiniBoss, KindBoss, KindServerBirthday, KindHoliday:
		return true
	}
	return false
}

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k EventKind) String() string { return string(k) }
