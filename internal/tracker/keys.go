package tracker

// Cache keys. Every read-through operation uses exactly one of these families.
//
// Invalidation policy:
//   - starting or stopping a timer invalidates KeyTimer and today's entries
//   - creating an entry invalidates only that entry's date
//   - KeyProjects and KeyTasks are never invalidated; they expire by TTL
const (
	KeyProjects = "projects"
	KeyTasks    = "tasks"
	KeyTimer    = "timer"
)

// TimeEntriesKey returns the cache key for one calendar date (YYYY-MM-DD).
func TimeEntriesKey(date string) string {
	return "time-entries/" + date
}
