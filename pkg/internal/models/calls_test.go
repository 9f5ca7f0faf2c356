package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCallStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to CallStatus }{
		{CallStatusScheduled, CallStatusInProgress},
		{CallStatusScheduled, CallStatusCancelled},
		{CallStatusScheduled, CallStatusFailed},
		{CallStatusInProgress, CallStatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransitCallStatus(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	refused := []struct{ from, to CallStatus }{
		{CallStatusScheduled, CallStatusCompleted},
		{CallStatusInProgress, CallStatusCancelled},
		{CallStatusInProgress, CallStatusFailed},
		{CallStatusCancelled, CallStatusScheduled},
		{CallStatusFailed, CallStatusInProgress},
		{CallStatusCompleted, CallStatusCompleted},
	}
	for _, tc := range refused {
		assert.False(t, CanTransitCallStatus(tc.from, tc.to), "%s -> %s should be refused", tc.from, tc.to)
	}

	// Completed, cancelled and failed are terminal.
	for _, status := range []CallStatus{CallStatusCompleted, CallStatusCancelled, CallStatusFailed} {
		assert.Empty(t, CallStatusTransitions[status])
	}
}

func TestCallParticipantHelpers(t *testing.T) {
	call := Call{
		Participants: []CallParticipant{
			{AccountID: 1, Role: MemberRoleClient},
			{AccountID: 2, Role: MemberRoleFreelancer},
		},
	}

	assert.True(t, call.IsParticipant(1))
	assert.True(t, call.IsParticipant(2))
	assert.False(t, call.IsParticipant(3))

	others := call.Counterparts(1)
	assert.Len(t, others, 1)
	assert.EqualValues(t, 2, others[0].AccountID)
}

func TestCallRoomExpiredAt(t *testing.T) {
	call := Call{
		ScheduledAt:     time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	}
	assert.Equal(t, time.Date(2026, 9, 14, 16, 45, 0, 0, time.UTC), call.RoomExpiredAt())
}
