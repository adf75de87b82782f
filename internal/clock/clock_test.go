package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	assert.Equal(t, start, c.Now())

	got := c.Advance(25 * time.Hour)
	assert.Equal(t, start.Add(25*time.Hour), got)
	assert.Equal(t, got, c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestRealClock_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-03:00", -3*60*60)
	now := Real(loc).Now()

	assert.Equal(t, loc, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestRealClock_NilLocationIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Real(nil).Now().Location())
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		name    string
		offset  string
		seconds int
		wantErr bool
	}{
		{name: "empty is utc", offset: "", seconds: 0},
		{name: "buenos aires", offset: "-03:00", seconds: -3 * 3600},
		{name: "india", offset: "+05:30", seconds: 5*3600 + 30*60},
		{name: "garbage", offset: "three hours", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseOffset(tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, got := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
			assert.Equal(t, tt.seconds, got)
		})
	}
}
