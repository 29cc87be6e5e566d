// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// OutcomeKind classifies the result of an answer submission.
type OutcomeKind string

const (
	OutcomeNone          OutcomeKind = "none" // event gone, nothing happened
	OutcomeCorrect       OutcomeKind = "correct"
	OutcomeIncorrect     OutcomeKind = "incorrect"
	OutcomeAlreadySolved OutcomeKind = "already_solved"
	OutcomeRateLimited   OutcomeKind = "rate_limited"
)

// Outcome is the result of Submit. Position, XPEarned and ElapsedMs are
// only meaningful for OutcomeCorrect.
type Outcome struct {
	Kind      OutcomeKind
	Position  int
	XPEarned  int
	ElapsedMs int64
}

// rewardMultiplier decays the base reward by leaderboard position:
// 1st 100%, 2nd 70%, 3rd 50%, everyone after 30%.
func rewardMultiplier(position int) float64 {
	switch position {
	case 1:
		return 1.0
	case 2:
		return 0.7
	case 3:
		return 0.5
	default:
		return 0.3
	}
}

// Submit validates an answer for a riddle or sequence event. Users
// already on the leaderboard get OutcomeAlreadySolved no matter what they
// send; wrong answers are recorded as attempts with no other side
// effects; correct answers append a leaderboard entry and earn
// rank-decayed XP.
func (r *Resolver) Submit(ctx context.Context, eventID, userID, username, answer string) (Outcome, error) {
	if !r.allow(userID) {
		metrics.IncSubmission(string(OutcomeRateLimited))
		return Outcome{Kind: OutcomeRateLimited}, nil
	}

	now := r.now()
	out := Outcome{Kind: OutcomeNone}

	ev, err := r.Store.UpdateEvent(ctx, eventID, func(ev *model.ActiveEvent) error {
		ch := ev.Challenge
		if ch == nil {
			return fmt.Errorf("event %s has no challenge payload", ev.ID)
		}
		if ch.OnLeaderboard(userID) {
			out = Outcome{Kind: OutcomeAlreadySolved}
			return nil
		}
		if !Matches(answer, ch.Answer, ch.AlternativeAnswers) {
			if ch.Attempts == nil {
				ch.Attempts = make(map[string]int)
			}
			ch.Attempts[userID]++
			out = Outcome{Kind: OutcomeIncorrect}
			return nil
		}

		elapsed := now.Sub(ev.StartTime).Milliseconds()
		position := len(ch.Leaderboard) + 1
		ch.Leaderboard = append(ch.Leaderboard, model.LeaderboardEntry{
			UserID:    userID,
			Username:  username,
			ElapsedMs: elapsed,
		})
		out = Outcome{
			Kind:      OutcomeCorrect,
			Position:  position,
			XPEarned:  int(math.Floor(float64(ch.XPBase) * rewardMultiplier(position))),
			ElapsedMs: elapsed,
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{Kind: OutcomeNone}, nil
	}
	if err != nil {
		return Outcome{Kind: OutcomeNone}, err
	}

	metrics.IncSubmission(string(out.Kind))

	if out.Kind == OutcomeCorrect {
		r.credit(ctx, ev, userID, username, out.XPEarned)
		metrics.AddXPAwarded("challenge", out.XPEarned)
		if ev.ChannelID != "" && r.Notify != nil {
			msg := fmt.Sprintf("🎉 **%s** a trouvé la réponse en position %d (+%d XP) !",
				username, out.Position, out.XPEarned)
			if err := r.Notify.SendToChannel(ctx, ev.ChannelID, msg); err != nil {
				r.logger.Warn().Err(err).Str("event_id", eventID).Msg("result delivery failed")
			}
		}
	}

	return out, nil
}
