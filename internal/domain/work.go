// Package domain contains core domain types for the ChronoNote application.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// WorkItem is a historical reference stored against a session.
type WorkItem struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	AuthorOrSource *string `json:"author_or_source"`
	Year           int     `json:"year"`
}

// TestWork is the chronology-test projection of a WorkItem.
// It has no year field so the answer never reaches the client.
type TestWork struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	AuthorOrSource *string `json:"author_or_source"`
}

// ExtractedWork is one item returned by an extraction pass, before it is
// assigned an ID.
type ExtractedWork struct {
	Title          string  `json:"title"`
	AuthorOrSource *string `json:"author_or_source"`
	Year           int     `json:"year"`
}

// Projection returns the year-less view of w.
func (w WorkItem) Projection() TestWork {
	return TestWork{
		ID:             w.ID,
		Title:          w.Title,
		AuthorOrSource: w.AuthorOrSource,
	}
}

// NewWorkItems assigns fresh IDs to extracted works. Items with a blank title
// are rejected with ErrInvalidInput.
func NewWorkItems(extracted []ExtractedWork) ([]WorkItem, error) {
	works := make([]WorkItem, 0, len(extracted))
	for i, e := range extracted {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			return nil, InvalidInputf("works[%d]: title is required", i)
		}
		works = append(works, WorkItem{
			ID:             uuid.NewString(),
			Title:          title,
			AuthorOrSource: NormalizeAuthor(e.AuthorOrSource),
			Year:           e.Year,
		})
	}
	return works, nil
}

// NormalizeAuthor trims author and maps blank values to nil.
func NormalizeAuthor(author *string) *string {
	if author == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*author)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Index maps work IDs to their position in works.
func Index(works []WorkItem) map[string]int {
	idx := make(map[string]int, len(works))
	for i, w := range works {
		idx[w.ID] = i
	}
	return idx
}
