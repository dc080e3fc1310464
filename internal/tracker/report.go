package tracker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const (
	reportDays   = 7
	topTaskCount = 5

	// lessThanRatio flags a day tracked at under half of the previous one.
	lessThanRatio = 0.5
)

// WeeklyReport aggregates seven days starting at startDate, Monday of the
// current week when empty. A day whose entries cannot be fetched is logged
// and skipped; the rest of the week still reports.
func (s *Service) WeeklyReport(ctx context.Context, startDate string) (WeeklyReport, error) {
	var start time.Time
	if startDate == "" {
		today := s.clock()
		offset := (int(today.Weekday()) + 6) % 7
		start = time.Date(today.Year(), today.Month(), today.Day()-offset, 0, 0, 0, 0, s.loc)
	} else {
		var err error
		if start, err = parseDate("start_date", startDate, s.loc); err != nil {
			return WeeklyReport{}, err
		}
	}

	report := WeeklyReport{
		StartDate: start.Format(dateLayout),
		EndDate:   start.AddDate(0, 0, reportDays-1).Format(dateLayout),
		Days:      []DayTotal{},
	}
	projects := map[string]int64{}
	tasks := map[string]int64{}

	for i := range reportDays {
		day := start.AddDate(0, 0, i)
		date := day.Format(dateLayout)
		res, err := s.DailySummary(ctx, date, "")
		if err != nil {
			if ctx.Err() != nil {
				return WeeklyReport{}, ctx.Err()
			}
			s.logger.WarnContext(ctx, "skipping day in weekly report",
				slog.String("date", date), slog.Any("error", err))
			report.SkippedDays = append(report.SkippedDays, date)
			continue
		}
		summary := res.Value
		if summary.TotalSeconds <= 0 {
			continue
		}
		report.TotalSeconds += summary.TotalSeconds
		report.Days = append(report.Days, DayTotal{
			Date:         date,
			Weekday:      day.Weekday().String(),
			TotalTime:    summary.TotalTime,
			TotalSeconds: summary.TotalSeconds,
		})
		for _, e := range summary.Entries {
			projects[e.ProjectName] += e.DurationSeconds
			tasks[fmt.Sprintf("%s (%s)", e.TaskName, e.ProjectName)] += e.DurationSeconds
		}
	}

	report.TotalTime = FormatDuration(report.TotalSeconds)
	report.Projects = rankTotals(projects, 0)
	report.TopTasks = rankTotals(tasks, topTaskCount)
	return report, nil
}

// rankTotals orders totals longest first, then by name. A positive limit
// truncates the result.
func rankTotals(totals map[string]int64, limit int) []NamedTotal {
	out := make([]NamedTotal, 0, len(totals))
	for name, secs := range totals {
		out = append(out, NamedTotal{Name: name, Duration: FormatDuration(secs), Seconds: secs})
	}
	slices.SortFunc(out, func(a, b NamedTotal) int {
		return cmp.Or(cmp.Compare(b.Seconds, a.Seconds), cmp.Compare(a.Name, b.Name))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Insights compares today's tracking with yesterday's.
func (s *Service) Insights(ctx context.Context) (Insights, error) {
	now := s.clock()
	today, err := s.DailySummary(ctx, now.Format(dateLayout), "")
	if err != nil {
		return Insights{}, err
	}
	yesterday, err := s.DailySummary(ctx, now.AddDate(0, 0, -1).Format(dateLayout), "")
	if err != nil {
		return Insights{}, err
	}
	timer, err := s.TimerStatus(ctx, "")
	if err != nil {
		return Insights{}, fmt.Errorf("insights: %w", err)
	}

	return Insights{
		Today:        today.Value,
		Yesterday:    yesterday.Value,
		Timer:        timer.Value,
		TrackingLess: float64(today.Value.TotalSeconds) < float64(yesterday.Value.TotalSeconds)*lessThanRatio,
	}, nil
}
