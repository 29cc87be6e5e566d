// SPDX-License-Identifier: MIT

package mission

import (
	"fmt"
	"math/rand/v2"

	"github.com/hibouclub/eventengine/internal/event/model"
)

// template is one drawable mission blueprint. Goals scale with the drawn
// difficulty; the description is formatted with the final goal.
type template struct {
	Type        model.MissionType
	Format      string // fmt string, %d is the goal
	EasyGoal    int
	MediumGoal  int
	HardGoal    int
	NeedsSymbol bool
	NeedsWords  bool
}

var templates = []template{
	{Type: model.MissionMessages, Format: "Envoie %d messages", EasyGoal: 10, MediumGoal: 25, HardGoal: 50},
	{Type: model.MissionLongMessages, Format: "Envoie %d messages longs (plus de 100 caractères)", EasyGoal: 3, MediumGoal: 6, HardGoal: 10},
	{Type: model.MissionEmojis, Format: "Utilise %d emojis différents", EasyGoal: 3, MediumGoal: 6, HardGoal: 12},
	{Type: model.MissionMentions, Format: "Mentionne %d membres différents", EasyGoal: 2, MediumGoal: 4, HardGoal: 8},
	{Type: model.MissionReactions, Format: "Réagis aux messages de %d membres différents", EasyGoal: 3, MediumGoal: 5, HardGoal: 10},
	{Type: model.MissionFunCommands, Format: "Utilise %d commandes fun différentes", EasyGoal: 2, MediumGoal: 3, HardGoal: 5},
	{Type: model.MissionGames, Format: "Joue à %d mini-jeux différents", EasyGoal: 1, MediumGoal: 2, HardGoal: 3},
	{Type: model.MissionImposedWords, Format: "Glisse %d mots imposés dans la conversation", EasyGoal: 2, MediumGoal: 3, HardGoal: 5, NeedsWords: true},
	{Type: model.MissionSymbol, Format: "Termine %d messages par le symbole imposé", EasyGoal: 3, MediumGoal: 5, HardGoal: 8, NeedsSymbol: true},
	{Type: model.MissionFormatting, Format: "Utilise du formatage (gras, italique...) dans %d messages", EasyGoal: 3, MediumGoal: 5, HardGoal: 8},
	{Type: model.MissionAIChat, Format: "Tiens %d vraies conversations avec l'IA du serveur", EasyGoal: 1, MediumGoal: 2, HardGoal: 3},
	{Type: model.MissionVoice, Format: "Passe %d minutes en vocal", EasyGoal: 10, MediumGoal: 20, HardGoal: 45},
	{Type: model.MissionImages, Format: "Poste %d images", EasyGoal: 2, MediumGoal: 4, HardGoal: 6},
	{Type: model.MissionReplies, Format: "Réponds à %d messages", EasyGoal: 3, MediumGoal: 6, HardGoal: 12},
}

var imposedSymbols = []string{"!", "?", "...", "👀", "✨", "🔥"}

var imposedWordPool = []string{
	"chocolatine", "licorne", "spatule", "cornichon", "turbulence",
	"pamplemousse", "aspirateur", "trampoline", "moustache", "banquise",
}

var difficulties = []string{"facile", "moyen", "difficile"}

// GenerateMissions draws count distinct missions with random difficulties.
// rng may be nil, in which case global randomness is used.
func GenerateMissions(count int, rng *rand.Rand) []model.Mission {
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	if count > len(templates) {
		count = len(templates)
	}

	perm := make([]int, len(templates))
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	missions := make([]model.Mission, 0, count)
	for _, idx := range perm[:count] {
		tpl := templates[idx]
		diff := difficulties[intn(len(difficulties))]
		goal := tpl.EasyGoal
		switch diff {
		case "moyen":
			goal = tpl.MediumGoal
		case "difficile":
			goal = tpl.HardGoal
		}
		m := model.Mission{
			Type:        tpl.Type,
			Description: fmt.Sprintf(tpl.Format, goal),
			Difficulty:  diff,
			Goal:        goal,
		}
		if tpl.NeedsSymbol {
			m.ImposedSymbol = imposedSymbols[intn(len(imposedSymbols))]
			m.Description += fmt.Sprintf(" (symbole : %s)", m.ImposedSymbol)
		}
		if tpl.NeedsWords {
			m.ImposedWords = drawWords(goal, intn)
			m.Description += fmt.Sprintf(" (mots : %v)", m.ImposedWords)
		}
		missions = append(missions, m)
	}
	return missions
}

// drawWords picks n distinct words from the pool.
func drawWords(n int, intn func(int) int) []string {
	if n > len(imposedWordPool) {
		n = len(imposedWordPool)
	}
	perm := make([]int, len(imposedWordPool))
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	words := make([]string, 0, n)
	for _, idx := range perm[:n] {
		words = append(words, imposedWordPool[idx])
	}
	return words
}
