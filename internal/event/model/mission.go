// SPDX-License-Identifier: MIT

package model

// MissionType identifies one hidden-objective variant of the impostor game.
type MissionType string

const (
	MissionMessages     MissionType = "MESSAGES"      // send N messages
	MissionLongMessages MissionType = "LONG_MESSAGES" // send N long messages
	MissionEmojis       MissionType = "EMOJIS"        // use N different emojis
	MissionMentions     MissionType = "MENTIONS"      // mention N different users
	MissionReactions    MissionType = "REACTIONS"     // react to N different users
	MissionFunCommands  MissionType = "FUN_COMMANDS"  // use N different fun commands
	MissionGames        MissionType = "GAMES"         // play N different mini-games
	MissionImposedWords MissionType = "IMPOSED_WORDS" // slip imposed words into chat
	MissionSymbol       MissionType = "SYMBOL"        // end N messages with the imposed symbol
	MissionFormatting   MissionType = "FORMATTING"    // use markdown formatting N times
	MissionAIChat       MissionType = "AI_CHAT"       // sustained conversations with the chat AI
	MissionVoice        MissionType = "VOICE"         // minutes spent alone in a voice channel
	MissionImages       MissionType = "IMAGES"        // post N images
	MissionReplies      MissionType = "REPLIES"       // reply to N messages
)

// MissionTypes lists every mission variant.
var MissionTypes = []MissionType{
	MissionMessages, MissionLongMessages, MissionEmojis, MissionMentions,
	MissionReactions, MissionFunCommands, MissionGames, MissionImposedWords,
	MissionSymbol, MissionFormatting, MissionAIChat, MissionVoice,
	MissionImages, MissionReplies,
}

// Deduplicated reports whether progress for the mission type only counts
// previously-unseen elements (tracked in the event's dedup sets).
func (t MissionType) Deduplicated() bool {
	switch t {
	case MissionEmojis, MissionMentions, MissionReactions,
		MissionFunCommands, MissionGames, MissionImposedWords:
		return true
	}
	return false
}

// Mission is one hidden objective inside an impostor event. Progress is
// monotonic and capped at Goal; once Completed it is frozen.
type Mission struct {
	Type        MissionType `json:"type"`
	Description string      `json:"description"`
	Difficulty  string      `json:"difficulty,omitempty"`
	Goal        int         `json:"goal"`
	Progress    int         `json:"progress"`
	Completed   bool        `json:"completed"`

	ImposedSymbol string   `json:"imposedSymbol,omitempty"`
	ImposedWords  []string `json:"imposedWords,omitempty"`
}

// Clone returns a deep copy of the mission.
func (m Mission) Clone() Mission {
	cp := m
	cp.ImposedWords = append([]string(nil), m.ImposedWords...)
	return cp
}

// SignalKind classifies one unit of player activity routed into the
// mission tracker.
type SignalKind string

const (
	SignalMessage      SignalKind = "MESSAGE"
	SignalLongMessage  SignalKind = "LONG_MESSAGE"
	SignalEmoji        SignalKind = "EMOJI"
	SignalMention      SignalKind = "MENTION"
	SignalReaction     SignalKind = "REACTION"
	SignalFunCommand   SignalKind = "FUN_COMMAND"
	SignalGame         SignalKind = "GAME"
	SignalImposedWord  SignalKind = "IMPOSED_WORD"
	SignalSymbol       SignalKind = "SYMBOL"
	SignalFormatting   SignalKind = "FORMATTING"
	SignalAIMessage    SignalKind = "AI_MESSAGE"
	SignalVoiceMinutes SignalKind = "VOICE_MINUTES"
	SignalImage        SignalKind = "IMAGE"
	SignalReply        SignalKind = "REPLY"
)

// SignalKinds lists every signal variant.
var SignalKinds = []SignalKind{
	SignalMessage, SignalLongMessage, SignalEmoji, SignalMention,
	SignalReaction, SignalFunCommand, SignalGame, SignalImposedWord,
	SignalSymbol, SignalFormatting, SignalAIMessage, SignalVoiceMinutes,
	SignalImage, SignalReply,
}

// MissionForSignal maps every signal kind to the mission type it advances.
// The table is total over SignalKinds; a test asserts this.
var MissionForSignal = map[SignalKind]MissionType{
	SignalMessage:      MissionMessages,
	SignalLongMessage:  MissionLongMessages,
	SignalEmoji:        MissionEmojis,
	SignalMention:      MissionMentions,
	SignalReaction:     MissionReactions,
	SignalFunCommand:   MissionFunCommands,
	SignalGame:         MissionGames,
	SignalImposedWord:  MissionImposedWords,
	SignalSymbol:       MissionSymbol,
	SignalFormatting:   MissionFormatting,
	SignalAIMessage:    MissionAIChat,
	SignalVoiceMinutes: MissionVoice,
	SignalImage:        MissionImages,
	SignalReply:        MissionReplies,
}

// Signal is one activity observation. Value carries the deduplication key
// (emoji, mentioned user, command name, ...); Amount carries explicit
// increments such as voice minutes and defaults to 1 when zero.
type Signal struct {
	Kind   SignalKind
	Value  string
	Amount int
}
