package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/livekit"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/workbridge/calling/pkg/internal/models"
)

const (
	defaultCallDuration = 60
	scheduleGracePeriod = time.Hour
	instantCallWindow   = 2 * time.Hour
	maxRoomParticipants = 4
)

// CallService owns the lifecycle of call records. The room provider and the
// notifier are injected capabilities, never ambient globals.
type CallService struct {
	db       *gorm.DB
	rooms    RoomProvider
	notifier Notifier

	now func() time.Time
}

func NewCallService(db *gorm.DB, rooms RoomProvider, notifier Notifier) *CallService {
	return &CallService{
		db:       db,
		rooms:    rooms,
		notifier: notifier,
		now:      time.Now,
	}
}

type ScheduleCallRequest struct {
	Title           string
	Description     string
	ScheduledAt     time.Time
	DurationMinutes int
}

type UpdateCallRequest struct {
	Title           string
	Description     string
	ScheduledAt     time.Time
	DurationMinutes int
}

func buildCallParticipants(workspace models.Workspace) (datatypes.JSONSlice[models.CallParticipant], error) {
	var participants []models.CallParticipant
	for _, role := range []models.MemberRole{models.MemberRoleClient, models.MemberRoleFreelancer} {
		member, ok := workspace.MemberWithRole(role)
		if !ok {
			return nil, fmt.Errorf("%w: workspace %s is missing its %s", ErrValidation, workspace.Alias, role)
		}
		participants = append(participants, models.CallParticipant{
			AccountID: member.AccountID,
			Role:      role,
			Name:      member.Account.Nick,
			Email:     member.Account.Email,
		})
	}
	return participants, nil
}

func (s *CallService) ScheduleCall(workspace models.Workspace, scheduler models.Account, req ScheduleCallRequest) (models.Call, error) {
	var call models.Call

	if _, ok := workspace.Membership(scheduler.ID); !ok {
		return call, gorm.ErrRecordNotFound
	}
	if req.ScheduledAt.IsZero() {
		return call, fmt.Errorf("%w: scheduled time is required", ErrValidation)
	}
	if req.DurationMinutes < 0 {
		return call, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = defaultCallDuration
	}

	participants, err := buildCallParticipants(workspace)
	if err != nil {
		return call, err
	}

	expiredAt := req.ScheduledAt.
		Add(time.Duration(req.DurationMinutes) * time.Minute).
		Add(scheduleGracePeriod)

	room, err := s.rooms.CreateRoom(context.Background(), RoomConfig{
		Name: fmt.Sprintf("call-%s", uuid.NewString()),
		Properties: RoomProperties{
			Privacy:           "private",
			EnableChat:        true,
			EnableScreenshare: true,
			ExpiredAt:         expiredAt.Unix(),
			MaxParticipants:   maxRoomParticipants,
		},
	})
	if err != nil {
		return call, err
	}

	call = models.Call{
		Title:           req.Title,
		Description:     req.Description,
		Status:          models.CallStatusScheduled,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		RoomName:        room.Name,
		RoomURL:         room.URL,
		Participants:    participants,
		ProviderPayload: room.Raw,
		WorkspaceID:     workspace.ID,
		SchedulerID:     scheduler.ID,
		Scheduler:       scheduler,
	}

	if err := s.db.Save(&call).Error; err != nil {
		return call, err
	}

	s.recordEvent(call, models.CallEventScheduled, scheduler.ID, map[string]any{
		"scheduled_at": call.ScheduledAt,
	})
	s.notifyCounterparts(call, scheduler.ID, models.CallEventScheduled)

	return call, nil
}

func (s *CallService) NewInstantCall(workspace models.Workspace, actor models.Account) (models.Call, error) {
	var call models.Call

	if _, ok := workspace.Membership(actor.ID); !ok {
		return call, gorm.ErrRecordNotFound
	}

	participants, err := buildCallParticipants(workspace)
	if err != nil {
		return call, err
	}

	startedAt := s.now()
	room, err := s.rooms.CreateRoom(context.Background(), RoomConfig{
		Name: fmt.Sprintf("call-%s", uuid.NewString()),
		Properties: RoomProperties{
			Privacy:           "private",
			EnableChat:        true,
			EnableScreenshare: true,
			ExpiredAt:         startedAt.Add(instantCallWindow).Unix(),
			MaxParticipants:   maxRoomParticipants,
		},
	})
	if err != nil {
		return call, err
	}

	call = models.Call{
		Status:          models.CallStatusInProgress,
		ScheduledAt:     startedAt,
		DurationMinutes: 0,
		IsInstant:       true,
		RoomName:        room.Name,
		RoomURL:         room.URL,
		Participants:    participants,
		StartedAt:       lo.ToPtr(startedAt),
		ProviderPayload: room.Raw,
		WorkspaceID:     workspace.ID,
		SchedulerID:     actor.ID,
		Scheduler:       actor,
	}
	markParticipantJoined(&call, actor.ID, startedAt)

	if err := s.db.Save(&call).Error; err != nil {
		return call, err
	}

	s.recordEvent(call, models.CallEventInstant, actor.ID, map[string]any{})
	s.notifyCounterparts(call, actor.ID, models.CallEventInstant)

	return call, nil
}

// GetCallForUser fetches a call on behalf of an actor. Non-participants get
// the same not-found as a missing record.
func (s *CallService) GetCallForUser(id uint, user models.Account) (models.Call, error) {
	var call models.Call
	if err := s.db.
		Where("id = ?", id).
		Preload("Scheduler").
		First(&call).Error; err != nil {
		return call, err
	}

	if !call.IsParticipant(user.ID) && call.SchedulerID != user.ID {
		log.Debug().Uint("call", call.ID).Uint("user", user.ID).
			Msg("Hiding call from actor outside of it...")
		return models.Call{}, gorm.ErrRecordNotFound
	}

	return call, nil
}

func (s *CallService) UpdateCall(call models.Call, actor models.Account, req UpdateCallRequest) (models.Call, error) {
	if call.SchedulerID != actor.ID {
		log.Debug().Uint("call", call.ID).Uint("user", actor.ID).
			Msg("Hiding call from non-scheduler updater...")
		return call, gorm.ErrRecordNotFound
	}
	if call.Status != models.CallStatusScheduled {
		return call, ErrInvalidTransition
	}
	if req.DurationMinutes < 0 {
		return call, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}

	if req.Title != "" {
		call.Title = req.Title
	}
	if req.Description != "" {
		call.Description = req.Description
	}
	if !req.ScheduledAt.IsZero() {
		call.ScheduledAt = req.ScheduledAt
	}
	if req.DurationMinutes > 0 {
		call.DurationMinutes = req.DurationMinutes
	}

	if err := s.db.Save(&call).Error; err != nil {
		return call, err
	}

	s.recordEvent(call, models.CallEventUpdated, actor.ID, map[string]any{
		"scheduled_at": call.ScheduledAt,
	})
	s.notifyCounterparts(call, actor.ID, models.CallEventUpdated)

	return call, nil
}

func (s *CallService) CancelCall(call models.Call, actor models.Account, reason string) (models.Call, error) {
	if !models.CanTransitCallStatus(call.Status, models.CallStatusCancelled) {
		return call, ErrInvalidTransition
	}

	// Best-effort cleanup: the record is cancelled even when the remote room
	// cannot be removed.
	if err := s.rooms.DeleteRoom(context.Background(), call.RoomName); err != nil {
		log.Error().Err(err).Str("room", call.RoomName).
			Msg("Unable to delete room at provider side")
	}

	call.Status = models.CallStatusCancelled
	call.CancelReason = lo.ToPtr(reason)
	call.CancelledByID = lo.ToPtr(actor.ID)
	call.CancelledAt = lo.ToPtr(s.now())

	if err := s.db.Save(&call).Error; err != nil {
		return call, err
	}

	s.recordEvent(call, models.CallEventCancelled, actor.ID, map[string]any{
		"reason": reason,
	})
	s.notifyCounterparts(call, actor.ID, models.CallEventCancelled)

	return call, nil
}

func (s *CallService) StartCall(call models.Call, actor models.Account) (models.Call, error) {
	if !models.CanTransitCallStatus(call.Status, models.CallStatusInProgress) {
		return call, ErrInvalidTransition
	}

	startedAt := s.now()
	call.Status = models.CallStatusInProgress
	call.StartedAt = lo.ToPtr(startedAt)
	markParticipantJoined(&call, actor.ID, startedAt)

	if err := s.db.Save(&call).Error; err != nil {
		return call, err
	}

	s.recordEvent(call, models.CallEventStarted, actor.ID, map[string]any{})
	s.notifyCounterparts(call, actor.ID, models.CallEventStarted)

	return call, nil
}

func (s *CallService) EndCall(call models.Call, actor models.Account, notes string) (models.Call, error) {
	if !models.CanTransitCallStatus(call.Status, models.CallStatusCompleted) {
		return call, ErrInvalidTransition
	}
	if call.StartedAt == nil {
		return call, ErrInvalidTransition
	}

	endedAt := s.now()
	call.Status = models.CallStatusCompleted
	call.EndedAt = lo.ToPtr(endedAt)
	call.Notes = notes
	// Duration is computed here, never trusted from the caller.
	call.ActualDurationMinutes = roundedMinutes(call.StartedAt, endedAt)
	markParticipantsLeft(&call, endedAt)

	if err := s.db.Save(&call).Error; err != nil {
		return call, err
	}

	s.recordEvent(call, models.CallEventEnded, actor.ID, map[string]any{
		"actual_duration_minutes": call.ActualDurationMinutes,
	})
	s.notifyCounterparts(call, actor.ID, models.CallEventEnded)

	return call, nil
}

func (s *CallService) ListCalls(workspace models.Workspace, status models.CallStatus, take, offset int) ([]models.Call, int64, error) {
	if take <= 0 || take > 100 {
		take = 100
	}

	tx := s.db.Model(&models.Call{}).Where("workspace_id = ?", workspace.ID)
	if len(status) > 0 {
		tx = tx.Where("status = ?", status)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var calls []models.Call
	if err := tx.
		Limit(take).
		Offset(offset).
		Order("scheduled_at DESC").
		Preload("Scheduler").
		Find(&calls).Error; err != nil {
		return calls, count, err
	}

	return calls, count, nil
}

// IssueCallToken mints a fresh room credential for one user; the scheduler
// gets the owner grant. Tokens are never persisted.
func (s *CallService) IssueCallToken(call models.Call, user models.Account) (string, error) {
	isOwner := user.ID == call.SchedulerID
	tk, err := s.rooms.IssueToken(call.RoomName, user.Name, user.Nick, isOwner)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return tk, nil
}

// ListLiveParticipants asks the provider who is in the room right now.
func (s *CallService) ListLiveParticipants(call models.Call) ([]*livekit.ParticipantInfo, error) {
	return s.rooms.ListParticipants(context.Background(), call.RoomName)
}

// SweepOverdueCalls fails scheduled calls whose grace window lapsed without
// anyone starting them. Runs from the cron maintenance schedule.
func (s *CallService) SweepOverdueCalls() {
	var calls []models.Call
	if err := s.db.
		Where("status = ?", models.CallStatusScheduled).
		Where("scheduled_at < ?", s.now().Add(-scheduleGracePeriod)).
		Find(&calls).Error; err != nil {
		log.Error().Err(err).Msg("An error occurred when sweeping overdue calls...")
		return
	}

	var affected int
	for _, call := range calls {
		if s.now().Before(call.RoomExpiredAt()) {
			continue
		}
		if !models.CanTransitCallStatus(call.Status, models.CallStatusFailed) {
			continue
		}
		call.Status = models.CallStatusFailed
		if err := s.db.Save(&call).Error; err != nil {
			log.Error().Err(err).Uint("call", call.ID).Msg("Unable to fail overdue call...")
			continue
		}
		s.recordEvent(call, models.CallEventUpdated, call.SchedulerID, map[string]any{
			"status": models.CallStatusFailed,
		})
		affected++
	}

	if affected > 0 {
		log.Info().Int("affected", affected).Msg("Swept overdue scheduled calls.")
	}
}

func (s *CallService) recordEvent(call models.Call, kind string, actor uint, body map[string]any) {
	event := models.CallEvent{
		Type:    kind,
		Body:    body,
		CallID:  call.ID,
		ActorID: actor,
	}
	if err := s.db.Save(&event).Error; err != nil {
		log.Warn().Err(err).Uint("call", call.ID).Str("type", kind).
			Msg("An error occurred when recording call event...")
	}
}

func (s *CallService) notifyCounterparts(call models.Call, actor uint, topic string) {
	if s.notifier == nil {
		return
	}
	for _, participant := range call.Counterparts(actor) {
		s.notifier.NotifyUser(participant.AccountID, topic, call)
	}
}

func markParticipantJoined(call *models.Call, accountId uint, at time.Time) {
	for idx, participant := range call.Participants {
		if participant.AccountID == accountId && participant.JoinedAt == nil {
			call.Participants[idx].JoinedAt = lo.ToPtr(at)
		}
	}
}

func markParticipantsLeft(call *models.Call, at time.Time) {
	for idx, participant := range call.Participants {
		if participant.JoinedAt == nil {
			continue
		}
		call.Participants[idx].LeftAt = lo.ToPtr(at)
		call.Participants[idx].DurationMinutes = lo.ToPtr(roundedMinutes(participant.JoinedAt, at))
	}
}

func roundedMinutes(from *time.Time, to time.Time) int {
	if from == nil {
		return 0
	}
	return int(math.Round(to.Sub(*from).Seconds() / 60))
}

// IsNotFound reports whether an error is the merged not-found /
// access-denied condition.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
