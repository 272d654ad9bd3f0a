package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var windowStart = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func TestWindow_Pruned(t *testing.T) {
	size := 60 * time.Second
	tests := []struct {
		name       string
		timestamps []time.Time
		now        time.Time
		wantCount  uint
	}{
		{
			name:       "empty window stays empty",
			timestamps: nil,
			now:        windowStart,
			wantCount:  0,
		},
		{
			name:       "recent entries are kept",
			timestamps: []time.Time{windowStart, windowStart.Add(10 * time.Second)},
			now:        windowStart.Add(20 * time.Second),
			wantCount:  2,
		},
		{
			name:       "entry exactly on the boundary is expired",
			timestamps: []time.Time{windowStart},
			now:        windowStart.Add(size),
			wantCount:  0,
		},
		{
			name:       "entry just inside the boundary is kept",
			timestamps: []time.Time{windowStart},
			now:        windowStart.Add(size - time.Second),
			wantCount:  1,
		},
		{
			name: "old entries dropped, new kept",
			timestamps: []time.Time{
				windowStart,
				windowStart.Add(10 * time.Second),
				windowStart.Add(45 * time.Second),
			},
			now:       windowStart.Add(61 * time.Second),
			wantCount: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Window{User: "u", Timestamps: tt.timestamps}
			pruned := w.Pruned(tt.now, size)
			assert.EqualValues(t, tt.wantCount, pruned.Count())
			// pruning never mutates the receiver
			assert.EqualValues(t, len(tt.timestamps), len(w.Timestamps))
		})
	}
}

func TestWindow_Appended(t *testing.T) {
	w := Window{User: "u", Timestamps: []time.Time{windowStart}}
	appended := w.Appended(windowStart.Add(time.Second))
	assert.EqualValues(t, 2, appended.Count())
	assert.EqualValues(t, 1, w.Count())
	assert.True(t, appended.Timestamps[1].Equal(windowStart.Add(time.Second)))
}
