package tracker

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	searchCutoff = 0.5
	searchLimit  = 10

	// partialWeight discounts a match found inside a longer string relative
	// to a whole-string match.
	partialWeight = 0.9
)

// Search fuzzy-matches query against active projects and tasks. Tasks are
// matched on "task project" so a project name narrows its tasks. Results
// score in [0,1], best first, at most ten.
func (s *Service) Search(ctx context.Context, query string) (SearchResult, error) {
	query, err := validateQuery(query)
	if err != nil {
		return SearchResult{}, err
	}
	projects, err := s.projects(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	tasks, err := s.tasks(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	cat := newCatalog(tasks, projects)

	var hits []SearchHit
	for _, p := range projects {
		if p.Archived {
			continue
		}
		if score := similarity(query, p.Name); score >= searchCutoff {
			hits = append(hits, SearchHit{Type: "project", ID: p.ID, Name: p.Name, MatchScore: round2(score)})
		}
	}
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		project := cat.projectByID(t.ProjectID)
		text := t.Name
		if t.ProjectID != 0 {
			text += " " + project
		}
		if score := similarity(query, text); score >= searchCutoff {
			hits = append(hits, SearchHit{
				Type:        "task",
				ID:          t.ID,
				Name:        t.Name,
				MatchScore:  round2(score),
				ProjectName: project,
			})
		}
	}

	slices.SortStableFunc(hits, func(a, b SearchHit) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})
	if len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return SearchResult{Results: hits, TotalResults: len(hits), Query: query}, nil
}

// similarity scores query against target in [0,1], case-insensitively. It is
// the better of the whole-string edit ratio and the best ratio of query
// against any equally long window of target, the latter discounted.
func similarity(query, target string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(target))
	if q == "" || t == "" {
		return 0
	}
	best := ratio(q, t)

	qr, tr := []rune(q), []rune(t)
	if len(qr) < len(tr) {
		for i := 0; i+len(qr) <= len(tr); i++ {
			best = max(best, partialWeight*ratio(q, string(tr[i:i+len(qr)])))
		}
	}
	return best
}

// ratio is one minus the normalised Levenshtein distance.
func ratio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
