// SPDX-License-Identifier: MIT

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Serviette", "serviette"},
		{"  LA SERVIETTE  ", "serviette"},
		{"l'éléphant", "elephant"},
		{"une Énigme", "enigme"},
		{"le chat et le chien", "chat et chien"},
		{"d’accord", "accord"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name         string
		guess        string
		answer       string
		alternatives []string
		want         bool
	}{
		{"exact", "serviette", "serviette", nil, true},
		{"case and article", "La Serviette", "serviette", nil, true},
		{"accented guess", "épée", "epee", nil, true},
		{"alternative", "essuie-tout", "serviette", []string{"essuie-tout"}, true},
		{"substring guess contains answer", "c'est la serviette !", "serviette", nil, true},
		{"substring answer contains guess", "serviet", "serviette", nil, true},
		{"different word", "essuie-main", "serviette", []string{"la serviette"}, false},
		{"short fragment rejected", "ser", "serviette", nil, false},
		{"empty guess", "", "serviette", nil, false},
		{"empty after articles", "la", "serviette", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.guess, tt.answer, tt.alternatives))
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("je cherche ma serviette de plage", "serviette"))
	assert.True(t, containsWord("La SERVIETTE est là", "serviette"))
	assert.False(t, containsWord("les serviettes sont là", "serviette"), "whole token only")
	assert.False(t, containsWord("", "serviette"))
}
