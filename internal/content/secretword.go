// SPDX-License-Identifier: MIT

package content

import "math/rand/v2"

// Everyday words that come up naturally in conversation. The point of
// the game is that someone says one without trying.
var secretWords = []string{
	"serviette", "fromage", "lundi", "pizza", "dormir",
	"musique", "soleil", "café", "week-end", "manger",
	"jeu", "travail", "film", "chat", "chien",
}

// RandomSecretWord picks the word of the day.
func RandomSecretWord() string {
	return secretWords[rand.IntN(len(secretWords))]
}
