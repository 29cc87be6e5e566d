// SPDX-License-Identifier: MIT

package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, loc)

	tests := []struct {
		name    string
		at      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "later today",
			at:   "18:00",
			want: time.Date(2026, 3, 10, 18, 0, 0, 0, loc),
		},
		{
			name: "already passed rolls to tomorrow",
			at:   "09:15",
			want: time.Date(2026, 3, 11, 9, 15, 0, 0, loc),
		},
		{
			name: "exactly now rolls to tomorrow",
			at:   "14:30",
			want: time.Date(2026, 3, 11, 14, 30, 0, 0, loc),
		},
		{
			name:    "garbage",
			at:      "noonish",
			wantErr: true,
		},
		{
			name:    "out of range",
			at:      "25:00",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.at, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
