package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStatus_Transitions(t *testing.T) {
	assert.True(t, EventActive.CanTransitionTo(EventFinalized))
	assert.True(t, EventActive.CanTransitionTo(EventCancelled))
	assert.False(t, EventActive.CanTransitionTo(EventActive))

	for _, terminal := range []EventStatus{EventCancelled, EventFinalized} {
		for _, next := range EventStatuses {
			assert.False(t, terminal.CanTransitionTo(next))
		}
	}
}

func TestEvent_TimeHelpers(t *testing.T) {
	start := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)
	event := &Event{StartTime: start, Status: EventActive}

	assert.Equal(t, start.Add(-5*time.Hour), event.CertificationOpensAt(5*time.Hour))
	assert.Equal(t, start.Add(2*time.Hour), event.EndsAt(2*time.Hour))
	assert.False(t, event.HasStarted(start))
	assert.True(t, event.HasStarted(start.Add(time.Nanosecond)))
	assert.True(t, event.IsActive())
}

func TestEventCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		req    EventCreateRequest
		fields []string
	}{
		{
			name: "valid",
			req:  EventCreateRequest{Name: "Concert", StartTime: time.Now().Add(48 * time.Hour), TotalCapacity: 10},
		},
		{
			name:   "blank name",
			req:    EventCreateRequest{Name: "  ", StartTime: time.Now(), TotalCapacity: 10},
			fields: []string{"name"},
		},
		{
			name:   "zero capacity and missing start",
			req:    EventCreateRequest{Name: "Concert"},
			fields: []string{"start_time", "total_capacity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			for _, f := range tt.fields {
				assert.Contains(t, valErr.Fields, f)
			}
		})
	}
}
