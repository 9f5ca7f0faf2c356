package services

import (
	"time"

	"github.com/workbridge/calling/pkg/internal/models"
)

type CallStatusMetric struct {
	Status                 models.CallStatus `json:"status"`
	Count                  int64             `json:"count"`
	TotalDurationMinutes   int64             `json:"total_duration_minutes"`
	AverageDurationMinutes float64           `json:"average_duration_minutes"`
}

type CallOverview struct {
	Title           string            `json:"title"`
	Status          models.CallStatus `json:"status"`
	ScheduledAt     time.Time         `json:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes"`
}

type CallStatistics struct {
	TotalCalls           int64              `json:"total_calls"`
	TotalDurationMinutes int64              `json:"total_duration_minutes"`
	Distribution         []CallStatusMetric `json:"distribution"`
	RecentCalls          []CallOverview     `json:"recent_calls"`
}

// GetCallStatistics is a purely derived read: per-status distribution with
// summed and averaged durations, overview totals, and the five most recent
// calls of the workspace.
func (s *CallService) GetCallStatistics(workspace models.Workspace) (CallStatistics, error) {
	var stats CallStatistics

	var rows []CallStatusMetric
	if err := s.db.Model(&models.Call{}).
		Select("status", "COUNT(*) AS count", "COALESCE(SUM(actual_duration_minutes), 0) AS total_duration_minutes").
		Where("workspace_id = ?", workspace.ID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return stats, err
	}

	for idx, row := range rows {
		if row.Count > 0 {
			rows[idx].AverageDurationMinutes = float64(row.TotalDurationMinutes) / float64(row.Count)
		}
		stats.TotalCalls += row.Count
		stats.TotalDurationMinutes += row.TotalDurationMinutes
	}
	stats.Distribution = rows

	if err := s.db.Model(&models.Call{}).
		Where("workspace_id = ?", workspace.ID).
		Order("scheduled_at DESC").
		Limit(5).
		Scan(&stats.RecentCalls).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
