package models

import (
	"time"

	"github.com/livekit/protocol/livekit"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

type CallStatus = string

const (
	CallStatusScheduled  = CallStatus("scheduled")
	CallStatusInProgress = CallStatus("in_progress")
	CallStatusCompleted  = CallStatus("completed")
	CallStatusCancelled  = CallStatus("cancelled")
	CallStatusFailed     = CallStatus("failed")
)

// CallStatusTransitions is the single authority on legal status changes.
// Completed, cancelled and failed are terminal on purpose: call records are
// kept forever for history and statistics.
var CallStatusTransitions = map[CallStatus][]CallStatus{
	CallStatusScheduled:  {CallStatusInProgress, CallStatusCancelled, CallStatusFailed},
	CallStatusInProgress: {CallStatusCompleted},
	CallStatusCompleted:  {},
	CallStatusCancelled:  {},
	CallStatusFailed:     {},
}

func CanTransitCallStatus(from, to CallStatus) bool {
	return lo.Contains(CallStatusTransitions[from], to)
}

// CallParticipant is fixed at creation; joined/left timestamps are auxiliary
// bookkeeping, never identity changes.
type CallParticipant struct {
	AccountID       uint       `json:"account_id"`
	Role            MemberRole `json:"role"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	JoinedAt        *time.Time `json:"joined_at,omitempty"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

type Call struct {
	BaseModel

	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Status                CallStatus `json:"status"`
	ScheduledAt           time.Time  `json:"scheduled_at"`
	DurationMinutes       int        `json:"duration_minutes"`
	ActualDurationMinutes int        `json:"actual_duration_minutes"`
	IsInstant             bool       `json:"is_instant"`

	RoomName string `json:"room_name"`
	RoomURL  string `json:"room_url"`

	Participants datatypes.JSONSlice[CallParticipant] `json:"participants"`

	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`

	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CancelledByID *uint      `json:"cancelled_by,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`

	Notes string `json:"notes"`

	// Raw provider response, kept for debugging only.
	ProviderPayload datatypes.JSONMap `json:"-"`

	WorkspaceID uint      `json:"workspace_id"`
	SchedulerID uint      `json:"scheduler_id"`
	Workspace   Workspace `json:"workspace,omitempty"`
	Scheduler   Account   `json:"scheduler"`

	LiveParticipants []*livekit.ParticipantInfo `json:"live_participants,omitempty" gorm:"-"`
}

func (v Call) IsParticipant(accountId uint) bool {
	for _, participant := range v.Participants {
		if participant.AccountID == accountId {
			return true
		}
	}
	return false
}

// Counterparts returns the participants other than the given account.
func (v Call) Counterparts(accountId uint) []CallParticipant {
	return lo.Filter(v.Participants, func(item CallParticipant, index int) bool {
		return item.AccountID != accountId
	})
}

// RoomExpiredAt is when the provider room is no longer needed: the scheduled
// window plus one hour of grace.
func (v Call) RoomExpiredAt() time.Time {
	return v.ScheduledAt.
		Add(time.Duration(v.DurationMinutes) * time.Minute).
		Add(time.Hour)
}
