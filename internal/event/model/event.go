// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"time"
)

// LeaderboardEntry records one solver. Entries are append-only and keep
// arrival order; a user appears at most once.
type LeaderboardEntry struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// ChallengeData is the payload shared by riddle, sequence and secret-word
// events: a question with a canonical answer, accepted alternatives and a
// deferred hint.
type ChallengeData struct {
	Question           string             `json:"question"`
	Answer             string             `json:"answer"`
	AlternativeAnswers []string           `json:"alternativeAnswers,omitempty"`
	Hint               string             `json:"hint,omitempty"`
	Difficulty         string             `json:"difficulty,omitempty"`
	XPBase             int                `json:"xpBase"`
	Leaderboard        []LeaderboardEntry `json:"leaderboard,omitempty"`
	Attempts           map[string]int     `json:"attempts,omitempty"` // userID -> wrong attempts
	HintShown          bool               `json:"hintShown"`
}

// OnLeaderboard reports whether the user already solved the challenge.
func (c *ChallengeData) OnLeaderboard(userID string) bool {
	for _, e := range c.Leaderboard {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// CounterData is the payload of a counter-race event. WinnerID is
// write-once: the first increment reaching TargetCount claims it.
type CounterData struct {
	TargetCount int    `json:"targetCount"`
	StartCount  int    `json:"startCount"`
	WinnerID    string `json:"winnerId,omitempty"`
	WinnerName  string `json:"winnerName,omitempty"`
	XPReward    int    `json:"xpReward"`
}

// BossData is the payload of boss and mini-boss fights. Damage is the
// per-user damage ledger.
type BossData struct {
	HP               int               `json:"hp"`
	MaxHP            int               `json:"maxHp"`
	DamagePerMessage int               `json:"damagePerMessage"`
	FinalBlowXP      int               `json:"finalBlowXp"`
	SharedXP         int               `json:"sharedXp,omitempty"`
	FailurePenalty   int               `json:"failurePenalty"`
	Kamikaze         bool              `json:"kamikaze,omitempty"`
	Damage           map[string]int    `json:"damage,omitempty"`
	Usernames        map[string]string `json:"usernames,omitempty"`
}

// ImpostorData is the payload of a hidden-objective game bound to a single
// user. The tracking sets de-duplicate activity signals.
type ImpostorData struct {
	ImpostorID       string          `json:"impostorId"`
	Username         string          `json:"username,omitempty"`
	Missions         []Mission       `json:"missions"`
	Completed        bool            `json:"completed"`
	EmojisUsed       map[string]bool `json:"emojisUsed,omitempty"`
	UsersMentioned   map[string]bool `json:"usersMentioned,omitempty"`
	ReactionsToUsers map[string]bool `json:"reactionsToUsers,omitempty"`
	FunCommandsUsed  map[string]bool `json:"funCommandsUsed,omitempty"`
	GamesPlayed      map[string]bool `json:"gamesPlayed,omitempty"`
	ImposedWordsUsed map[string]bool `json:"imposedWordsUsed,omitempty"`

	AIConversationStreak int       `json:"aiConversationStreak,omitempty"`
	LastAIMessageTime    time.Time `json:"lastAiMessageTime,omitzero"`
}

// AllMissionsCompleted reports whether every mission is done.
func (d *ImpostorData) AllMissionsCompleted() bool {
	for i := range d.Missions {
		if !d.Missions[i].Completed {
			return false
		}
	}
	return len(d.Missions) > 0
}

// ParticipationData is the payload of celebration events (server birthday,
// holiday): everyone who joins in gets the same reward at expiry.
type ParticipationData struct {
	Participants map[string]string `json:"participants,omitempty"` // userID -> username
	XPEach       int               `json:"xpEach"`
}

// ActiveEvent is one running event instance. Exactly one payload pointer
// matching Kind is set; Validate enforces the pairing.
type ActiveEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	ChannelID  string    `json:"channelId,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Test       bool      `json:"test,omitempty"`

	Challenge     *ChallengeData     `json:"challenge,omitempty"`
	Counter       *CounterData       `json:"counter,omitempty"`
	Boss          *BossData          `json:"boss,omitempty"`
	Impostor      *ImpostorData      `json:"impostor,omitempty"`
	Participation *ParticipationData `json:"participation,omitempty"`
}

// Expired reports whether the event's end time has passed.
func (e *ActiveEvent) Expired(now time.Time) bool {
	return !e.EndTime.After(now)
}

// Validate checks that exactly the payload matching Kind is present.
func (e *ActiveEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event without id")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	want := map[EventKind]bool{
		KindRiddle:           e.Challenge != nil,
		KindSequence:         e.Challenge != nil,
		KindSecretWord:       e.Challenge != nil,
		KindCounterChallenge: e.Counter != nil,
		KindMiniBoss:         e.Boss != nil,
		KindBoss:             e.Boss != nil,
		KindImpostor:         e.Impostor != nil,
		KindServerBirthday:   e.Participation != nil,
		KindHoliday:          e.Participation != nil,
	}
	ok, known := want[e.Kind]
	if !known {
		return fmt.Errorf("event kind %q cannot be persisted", e.Kind)
	}
	if !ok {
		return fmt.Errorf("event %s (%s) is missing its %s payload", e.ID, e.Kind, e.Kind)
	}
	set := 0
	for _, present := range []bool{
		e.Challenge != nil, e.Counter != nil, e.Boss != nil,
		e.Impostor != nil, e.Participation != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("event %s carries %d payloads, want exactly 1", e.ID, set)
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate shared state outside UpdateEvent.
func (e *ActiveEvent) Clone() *ActiveEvent {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Challenge != nil {
		c := *e.Challenge
		c.AlternativeAnswers = append([]string(nil), e.Challenge.AlternativeAnswers...)
		c.Leaderboard = append([]LeaderboardEntry(nil), e.Challenge.Leaderboard...)
		c.Attempts = cloneIntMap(e.Challenge.Attempts)
		cp.Challenge = &c
	}
	if e.Counter != nil {
		c := *e.Counter
		cp.Counter = &c
	}
	if e.Boss != nil {
		b := *e.Boss
		b.Damage = cloneIntMap(e.Boss.Damage)
		b.Usernames = cloneStringMap(e.Boss.Usernames)
		cp.Boss = &b
	}
	if e.Impostor != nil {
		im := *e.Impostor
		im.Missions = make([]Mission, len(e.Impostor.Missions))
		for i, m := range e.Impostor.Missions {
			im.Missions[i] = m.Clone()
		}
		im.EmojisUsed = cloneSet(e.Impostor.EmojisUsed)
		im.UsersMentioned = cloneSet(e.Impostor.UsersMentioned)
		im.ReactionsToUsers = cloneSet(e.Impostor.ReactionsToUsers)
		im.FunCommandsUsed = cloneSet(e.Impostor.FunCommandsUsed)
		im.GamesPlayed = cloneSet(e.Impostor.GamesPlayed)
		im.ImposedWordsUsed = cloneSet(e.Impostor.ImposedWordsUsed)
		cp.Impostor = &im
	}
	if e.Participation != nil {
		p := *e.Participation
		p.Participants = cloneStringMap(e.Participation.Participants)
		cp.Participation = &p
	}
	return &cp
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	cp := make(map[string]int, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneSet(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	cp := make(map[string]bool, len(m))
	for k := range m {
		cp[k] = true
	}
	return cp
}
