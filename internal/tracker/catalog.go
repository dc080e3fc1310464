package tracker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/timecamp"
)

// projects returns the cached project list.
func (s *Service) projects(ctx context.Context) ([]timecamp.Project, error) {
	projects, _, err := cache.Load(ctx, s.cache, KeyProjects, cache.UseDefaultTTL, s.gateway.Projects)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	return projects, nil
}

// tasks returns the cached task list.
func (s *Service) tasks(ctx context.Context) ([]timecamp.Task, error) {
	tasks, _, err := cache.Load(ctx, s.cache, KeyTasks, cache.UseDefaultTTL, s.gateway.Tasks)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	return tasks, nil
}

// catalog indexes tasks and projects by id.
type catalog struct {
	tasks    map[int64]timecamp.Task
	projects map[int64]timecamp.Project
}

func newCatalog(tasks []timecamp.Task, projects []timecamp.Project) catalog {
	c := catalog{
		tasks:    make(map[int64]timecamp.Task, len(tasks)),
		projects: make(map[int64]timecamp.Project, len(projects)),
	}
	for _, t := range tasks {
		c.tasks[t.ID] = t
	}
	for _, p := range projects {
		c.projects[p.ID] = p
	}
	return c
}

// taskName returns the task's name or the unknown placeholder.
func (c catalog) taskName(id int64) string {
	if t, ok := c.tasks[id]; ok {
		return t.Name
	}
	return unknownTask
}

// projectName returns the name of the project a task belongs to.
func (c catalog) projectName(taskID int64) string {
	t, ok := c.tasks[taskID]
	if !ok {
		return noProject
	}
	return c.projectByID(t.ProjectID)
}

func (c catalog) projectByID(id int64) string {
	if p, ok := c.projects[id]; ok {
		return p.Name
	}
	return noProject
}

// loadCatalog fetches tasks and projects. Projects are optional: a failure
// there leaves project names unresolved rather than failing the read.
func (s *Service) loadCatalog(ctx context.Context) (catalog, error) {
	tasks, err := s.tasks(ctx)
	if err != nil {
		return catalog{}, err
	}
	projects, err := s.projects(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "project names unavailable", slog.Any("error", err))
	}
	return newCatalog(tasks, projects), nil
}

// lookupNames resolves a task and its project without failing the caller.
func (s *Service) lookupNames(ctx context.Context, taskID int64) (task, project string) {
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "task name lookup failed",
			slog.Int64("task_id", taskID), slog.Any("error", err))
		return unknownTask, noProject
	}
	return cat.taskName(taskID), cat.projectName(taskID)
}

// ProjectList returns projects sorted by name with their task counts.
// Archived projects are left out unless includeArchived is set.
func (s *Service) ProjectList(ctx context.Context, includeArchived bool) (ProjectList, error) {
	projects, err := s.projects(ctx)
	if err != nil {
		return ProjectList{}, err
	}
	tasks, err := s.tasks(ctx)
	if err != nil {
		return ProjectList{}, err
	}

	counts := make(map[int64]int, len(projects))
	for _, t := range tasks {
		if t.ProjectID != 0 {
			counts[t.ProjectID]++
		}
	}

	list := ProjectList{Projects: []ProjectInfo{}, IncludeArchived: includeArchived}
	for _, p := range projects {
		if p.Archived && !includeArchived {
			continue
		}
		color := p.Color
		if color == "" {
			color = defaultColor
		}
		list.Projects = append(list.Projects, ProjectInfo{
			ID:         p.ID,
			Name:       p.Name,
			Color:      color,
			TasksCount: counts[p.ID],
			Archived:   p.Archived,
		})
	}
	slices.SortStableFunc(list.Projects, func(a, b ProjectInfo) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	list.TotalCount = len(list.Projects)
	return list, nil
}

// Tasks returns every task with its project's name, sorted by name then id.
func (s *Service) Tasks(ctx context.Context) ([]TaskInfo, error) {
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TaskInfo, 0, len(cat.tasks))
	for _, t := range cat.tasks {
		out = append(out, TaskInfo{
			ID:          t.ID,
			Name:        t.Name,
			ProjectID:   t.ProjectID,
			ProjectName: cat.projectByID(t.ProjectID),
			Archived:    t.Archived,
		})
	}
	slices.SortFunc(out, func(a, b TaskInfo) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}
