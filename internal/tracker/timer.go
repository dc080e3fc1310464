package tracker

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/changelog"
	"github.com/gorewood/timecamp-mcp/internal/timecamp"
)

// StartTimer starts a timer for taskID.
//
// The running-timer check goes straight to the upstream, never the cache. It
// is best-effort: if the check itself fails the start is still attempted.
// Two concurrent starts can both pass it.
func (s *Service) StartTimer(ctx context.Context, taskID int64, note string) (TimerStarted, error) {
	if err := validateTaskID(taskID); err != nil {
		return TimerStarted{}, err
	}
	if err := validateNote(note); err != nil {
		return TimerStarted{}, err
	}

	running, err := s.gateway.RunningTimer(ctx)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "running timer check failed", slog.Any("error", err))
	case running != nil:
		return TimerStarted{}, &TimerRunningError{
			TaskName: s.timerTaskName(ctx, running),
			TimerID:  running.TimerID,
		}
	}

	started := s.clock()
	timerID, err := s.gateway.StartTimer(ctx, timecamp.StartTimerRequest{
		TaskID:    taskID,
		StartedAt: started,
		Note:      note,
	})
	if err != nil {
		return TimerStarted{}, fmt.Errorf("starting timer: %w", err)
	}
	s.invalidate(ctx, KeyTimer, TimeEntriesKey(started.Format(dateLayout)))

	taskName, projectName := s.lookupNames(ctx, taskID)
	details := map[string]any{
		"timer_id":  timerID,
		"task_id":   taskID,
		"task_name": taskName,
	}
	if note != "" {
		details["note"] = note
	}
	s.changes.Record(changelog.TimerStarted, details)
	s.logger.InfoContext(ctx, "timer started",
		slog.Int64("timer_id", timerID), slog.Int64("task_id", taskID))

	return TimerStarted{
		Message:     fmt.Sprintf("Timer started for task '%s'", taskName),
		TimerID:     timerID,
		TaskID:      taskID,
		TaskName:    taskName,
		ProjectName: projectName,
		StartedAt:   started.Format("2006-01-02T15:04:05"),
	}, nil
}

// StopTimer stops the running timer and reports how long it ran.
func (s *Service) StopTimer(ctx context.Context) (TimerStopped, error) {
	running, err := s.gateway.RunningTimer(ctx)
	if err != nil {
		return TimerStopped{}, fmt.Errorf("checking running timer: %w", err)
	}
	if running == nil {
		return TimerStopped{}, ErrNoTimerRunning
	}

	if err := s.gateway.StopTimer(ctx); err != nil {
		return TimerStopped{}, fmt.Errorf("stopping timer: %w", err)
	}
	now := s.clock()

	keys := []string{KeyTimer, TimeEntriesKey(now.Format(dateLayout))}
	duration := unknownDuration
	var seconds int64
	if running.HasStart {
		seconds = max(int64(now.Sub(running.StartedAt).Seconds()), 0)
		duration = FormatDuration(seconds)
		// A timer that crossed midnight lands on the day it started.
		if startDay := running.StartedAt.In(s.loc).Format(dateLayout); startDay != now.Format(dateLayout) {
			keys = append(keys, TimeEntriesKey(startDay))
		}
	}
	s.invalidate(ctx, keys...)

	taskName := s.timerTaskName(ctx, running)
	s.changes.Record(changelog.TimerStopped, map[string]any{
		"timer_id":         running.TimerID,
		"task_id":          running.TaskID,
		"task_name":        taskName,
		"duration_seconds": seconds,
	})
	s.logger.InfoContext(ctx, "timer stopped",
		slog.Int64("timer_id", running.TimerID), slog.String("duration", duration))

	return TimerStopped{
		Message:         fmt.Sprintf("Timer stopped for task '%s'", taskName),
		Duration:        duration,
		DurationSeconds: seconds,
		TaskName:        taskName,
		TaskID:          running.TaskID,
		TimerID:         running.TimerID,
	}, nil
}

// TimerStatus reports the running timer, cached under KeyTimer.
func (s *Service) TimerStatus(ctx context.Context, ifETag string) (cache.Loaded[TimerStatus], error) {
	res, err := cache.LoadIf(ctx, s.cache, KeyTimer, ifETag, cache.TimerTTL, s.fetchTimerStatus)
	if err != nil {
		return res, fmt.Errorf("fetching timer status: %w", err)
	}
	return res, nil
}

func (s *Service) fetchTimerStatus(ctx context.Context) (TimerStatus, error) {
	running, err := s.gateway.RunningTimer(ctx)
	if err != nil {
		return TimerStatus{}, err
	}
	if running == nil {
		return TimerStatus{IsRunning: false, Message: "No timer running"}, nil
	}

	status := TimerStatus{
		IsRunning:   true,
		TimerID:     running.TimerID,
		TaskID:      running.TaskID,
		TaskName:    running.Name,
		ProjectName: running.ProjectName,
	}
	if status.TaskName == "" || status.ProjectName == "" {
		taskName, projectName := s.lookupNames(ctx, running.TaskID)
		status.TaskName = cmp.Or(status.TaskName, taskName)
		status.ProjectName = cmp.Or(status.ProjectName, projectName)
	}
	if running.HasStart {
		status.ElapsedSeconds = max(int64(s.clock().Sub(running.StartedAt).Seconds()), 0)
		status.ElapsedTime = FormatDuration(status.ElapsedSeconds)
		status.StartTime = running.StartedAt.In(s.loc).Format("2006-01-02T15:04:05")
	}
	return status, nil
}

// runningTimerToday is the best-effort timer lookup used by summaries.
func (s *Service) runningTimerToday(ctx context.Context) *TimerStatus {
	res, err := s.TimerStatus(ctx, "")
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "timer status unavailable", slog.Any("error", err))
		}
		return nil
	}
	if !res.Value.IsRunning {
		return nil
	}
	status := res.Value
	return &status
}

// timerTaskName names the task a running timer belongs to.
func (s *Service) timerTaskName(ctx context.Context, running *timecamp.Timer) string {
	if running.Name != "" {
		return running.Name
	}
	name, _ := s.lookupNames(ctx, running.TaskID)
	return name
}
