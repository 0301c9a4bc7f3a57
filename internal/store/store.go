package store

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// Store owns all durable rows. Every operation is an individual single-row
// commit; nothing here spans more than one logical write.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// AddSchedule inserts a new schedule row and returns its assigned id.
// Duplicate (device, time) rows are permitted.
func (s *Store) AddSchedule(ctx context.Context, device Device, timeOfDay string, duration int, action string) (uint, error) {
	entry := &ScheduleEntry{
		Device:    device,
		TimeOfDay: timeOfDay,
		Duration:  duration,
		Action:    action,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, errdefs.Storage("add schedule", err)
	}

	s.logger.Debug("schedule added",
		"id", entry.ID,
		"device", device,
		"time_of_day", timeOfDay,
	)
	return entry.ID, nil
}

// Schedules returns all schedule rows sorted ascending by time of day.
func (s *Store) Schedules(ctx context.Context) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	if err := s.db.WithContext(ctx).Order("time_of_day asc").Find(&entries).Error; err != nil {
		return nil, errdefs.Storage("get schedules", err)
	}
	return entries, nil
}

// DeleteSchedule removes the schedule row with the given id. Deleting a
// non-existent id is a no-op, not an error.
func (s *Store) DeleteSchedule(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&ScheduleEntry{}, id).Error; err != nil {
		return errdefs.Storage("delete schedule", err)
	}
	return nil
}

// DeleteAllSchedules removes every schedule row.
func (s *Store) DeleteAllSchedules(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&ScheduleEntry{}).Error; err != nil {
		return errdefs.Storage("delete all schedules", err)
	}
	return nil
}

// AppendLog appends one entry to the action log.
func (s *Store) AppendLog(ctx context.Context, action string) error {
	if err := s.db.WithContext(ctx).Create(&ActionLogEntry{Action: action}).Error; err != nil {
		return errdefs.Storage("append log", err)
	}
	return nil
}

// RecentLogs returns up to limit log entries, most recent first.
func (s *Store) RecentLogs(ctx context.Context, limit int) ([]ActionLogEntry, error) {
	var entries []ActionLogEntry
	if err := s.db.WithContext(ctx).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, errdefs.Storage("get logs", err)
	}
	return entries, nil
}

// ClearLogs truncates the action log wholesale. Individual entries are never
// deleted.
func (s *Store) ClearLogs(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&ActionLogEntry{}).Error; err != nil {
		return errdefs.Storage("clear logs", err)
	}
	return nil
}

// AddReading appends one row of aggregated sensor values to the history.
func (s *Store) AddReading(ctx context.Context, reading *SensorReading) error {
	if err := s.db.WithContext(ctx).Create(reading).Error; err != nil {
		return errdefs.Storage("add reading", err)
	}
	return nil
}

// RecentReadings returns up to limit historical readings, most recent first.
func (s *Store) RecentReadings(ctx context.Context, limit int) ([]SensorReading, error) {
	var readings []SensorReading
	if err := s.db.WithContext(ctx).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&readings).Error; err != nil {
		return nil, errdefs.Storage("get readings", err)
	}
	return readings, nil
}
