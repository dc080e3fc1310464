package tracker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/changelog"
	"github.com/gorewood/timecamp-mcp/internal/timecamp"
)

// CreateTimeEntry records a manual block of time. All input is validated
// before the upstream is contacted.
func (s *Service) CreateTimeEntry(ctx context.Context, in EntryInput) (EntryCreated, error) {
	if err := validateTaskID(in.TaskID); err != nil {
		return EntryCreated{}, err
	}
	day, err := parseDate("date", in.Date, s.loc)
	if err != nil {
		return EntryCreated{}, err
	}
	start, err := parseClock("start_time", in.StartTime, day)
	if err != nil {
		return EntryCreated{}, err
	}
	end, err := parseClock("end_time", in.EndTime, day)
	if err != nil {
		return EntryCreated{}, err
	}
	if !end.After(start) {
		return EntryCreated{}, invalid("end_time", "End time must be after start time")
	}
	if err := validateNote(in.Note); err != nil {
		return EntryCreated{}, err
	}

	seconds := int64(end.Sub(start).Seconds())
	entryID, err := s.gateway.CreateTimeEntry(ctx, timecamp.NewTimeEntry{
		TaskID:    in.TaskID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Duration:  seconds,
		Note:      in.Note,
	})
	if err != nil {
		return EntryCreated{}, fmt.Errorf("creating time entry: %w", err)
	}
	s.invalidate(ctx, TimeEntriesKey(in.Date))

	taskName, projectName := s.lookupNames(ctx, in.TaskID)
	s.changes.Record(changelog.TimeEntryCreated, map[string]any{
		"entry_id":         entryID,
		"task_id":          in.TaskID,
		"task_name":        taskName,
		"date":             in.Date,
		"duration_seconds": seconds,
	})
	s.logger.InfoContext(ctx, "time entry created",
		slog.Int64("entry_id", entryID), slog.String("date", in.Date))

	return EntryCreated{
		EntryID:         entryID,
		TaskID:          in.TaskID,
		TaskName:        taskName,
		ProjectName:     projectName,
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Duration:        FormatDuration(seconds),
		DurationSeconds: seconds,
		Note:            in.Note,
	}, nil
}

// DailySummary aggregates date's entries by task, cached under
// TimeEntriesKey(date). An empty date means today. When date is today the
// summary also carries the running timer, if one is known.
func (s *Service) DailySummary(ctx context.Context, date, ifETag string) (cache.Loaded[DailySummary], error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := parseDate("date", date, s.loc); err != nil {
		return cache.Loaded[DailySummary]{}, err
	}
	res, err := cache.LoadIf(ctx, s.cache, TimeEntriesKey(date), ifETag, cache.UseDefaultTTL,
		func(ctx context.Context) (DailySummary, error) {
			return s.fetchDailySummary(ctx, date)
		})
	if err != nil {
		return res, fmt.Errorf("summarizing %s: %w", date, err)
	}
	return res, nil
}

func (s *Service) fetchDailySummary(ctx context.Context, date string) (DailySummary, error) {
	entries, err := s.gateway.TimeEntries(ctx, date, date)
	if err != nil {
		return DailySummary{}, err
	}
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return DailySummary{}, err
	}

	summary := summarize(date, entries, cat)
	if date == s.Today() {
		if status := s.runningTimerToday(ctx); status != nil {
			summary.IsTimerRunning = true
			summary.CurrentTask = status.TaskName
			summary.CurrentTaskID = status.TaskID
		}
	}
	return summary, nil
}

// summarize groups entries by task. Durations are summed, notes are unioned
// in first-seen order, and groups are ordered by total duration, longest
// first, ties keeping first-seen order.
func summarize(date string, entries []timecamp.TimeEntry, cat catalog) DailySummary {
	var groups []*SummaryEntry
	byTask := make(map[int64]*SummaryEntry)
	seenNotes := make(map[int64]map[string]bool)
	var total int64

	for _, e := range entries {
		total += e.Duration
		g, ok := byTask[e.TaskID]
		if !ok {
			g = &SummaryEntry{
				TaskID:      e.TaskID,
				TaskName:    cat.taskName(e.TaskID),
				ProjectName: cat.projectName(e.TaskID),
				Notes:       []string{},
			}
			byTask[e.TaskID] = g
			seenNotes[e.TaskID] = make(map[string]bool)
			groups = append(groups, g)
		}
		g.DurationSeconds += e.Duration
		if e.Note != "" && !seenNotes[e.TaskID][e.Note] {
			seenNotes[e.TaskID][e.Note] = true
			g.Notes = append(g.Notes, e.Note)
		}
	}

	out := make([]SummaryEntry, 0, len(groups))
	for _, g := range groups {
		g.Duration = FormatDuration(g.DurationSeconds)
		out = append(out, *g)
	}
	slices.SortStableFunc(out, func(a, b SummaryEntry) int {
		return cmp.Compare(b.DurationSeconds, a.DurationSeconds)
	})

	return DailySummary{
		Date:         date,
		TotalTime:    FormatDuration(total),
		TotalSeconds: total,
		Entries:      out,
		EntryCount:   len(entries),
	}
}
