// Package quiz implements the timeline, chronology-test and date-quiz logic
// over a session's work list. All functions are pure apart from the Source
// they draw randomness from.
package quiz

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ashureev/chrononote/internal/domain"
)

const (
	testSizeMin = 5
	testSizeMax = 7

	decoyCount       = 3
	decoyOffsetMin   = 5
	decoyOffsetMax   = 20
	maxDecoyAttempts = 1000

	// YearMin and YearMax bound the years offered as quiz options.
	YearMin = 1
	YearMax = 2100
)

// OrderResult is the verdict of a chronology check.
type OrderResult struct {
	Correct      bool     `json:"correct"`
	CorrectOrder []string `json:"correct_order"`
	Message      string   `json:"message"`
}

// Question is one date-quiz question. The correct option is not marked.
type Question struct {
	WorkID         string  `json:"work_id"`
	Title          string  `json:"title"`
	AuthorOrSource *string `json:"author_or_source"`
	YearOptions    []int   `json:"year_options"`
}

// AnswerResult is the verdict of a date-quiz answer.
type AnswerResult struct {
	Correct    bool   `json:"correct"`
	ActualYear int    `json:"actual_year"`
	Message    string `json:"message"`
}

// Timeline returns works sorted by year ascending. Equal years keep their
// input order. works is not modified.
func Timeline(works []domain.WorkItem) []domain.WorkItem {
	sorted := slices.Clone(works)
	if sorted == nil {
		sorted = []domain.WorkItem{}
	}
	slices.SortStableFunc(sorted, byYear)
	return sorted
}

// ChronologyTest samples between 5 and 7 works (fewer if the list is
// shorter), strips their years and returns them in random order.
func ChronologyTest(rng Source, works []domain.WorkItem) []domain.TestWork {
	size := testSizeMin + rng.IntN(testSizeMax-testSizeMin+1)
	picked := sample(rng, works, min(len(works), size))

	out := make([]domain.TestWork, len(picked))
	for i, w := range picked {
		out[i] = w.Projection()
	}
	shuffle(rng, out)
	return out
}

// CheckOrder validates a proposed chronological order of work IDs.
// The first ID not present in works fails with *domain.UnknownWorkError.
func CheckOrder(works []domain.WorkItem, orderedIDs []string) (OrderResult, error) {
	idx := domain.Index(works)
	submitted := make([]domain.WorkItem, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		i, ok := idx[id]
		if !ok {
			return OrderResult{}, &domain.UnknownWorkError{ID: id}
		}
		submitted = append(submitted, works[i])
	}

	correct := true
	for i := 0; i+1 < len(submitted); i++ {
		if submitted[i].Year > submitted[i+1].Year {
			correct = false
			break
		}
	}

	sorted := Timeline(submitted)
	order := make([]string, len(sorted))
	for i, w := range sorted {
		order[i] = w.ID
	}

	msg := "Incorrect order. Try again!"
	if correct {
		msg = "Correct order!"
	}
	return OrderResult{Correct: correct, CorrectOrder: order, Message: msg}, nil
}

// NextQuestion picks a random work and builds four shuffled year options,
// one of which is the work's year.
func NextQuestion(rng Source, works []domain.WorkItem) (Question, error) {
	if len(works) == 0 {
		return Question{}, fmt.Errorf("next question: %w", domain.ErrNoWorks)
	}
	target := works[rng.IntN(len(works))]

	options := append([]int{target.Year}, DecoyYears(rng, target.Year)...)
	shuffle(rng, options)

	return Question{
		WorkID:         target.ID,
		Title:          target.Title,
		AuthorOrSource: target.AuthorOrSource,
		YearOptions:    options,
	}, nil
}

// CheckAnswer reports whether selectedYear is the year of the work with the
// given ID.
func CheckAnswer(works []domain.WorkItem, workID string, selectedYear int) (AnswerResult, error) {
	i, ok := domain.Index(works)[workID]
	if !ok {
		return AnswerResult{}, &domain.UnknownWorkError{ID: workID}
	}
	actual := works[i].Year
	if selectedYear == actual {
		return AnswerResult{Correct: true, ActualYear: actual, Message: "Correct!"}, nil
	}
	return AnswerResult{
		Correct:    false,
		ActualYear: actual,
		Message:    fmt.Sprintf("Incorrect. The correct year is %d.", actual),
	}, nil
}

// DecoyYears returns three distinct years within [YearMin, YearMax], each
// between 5 and 20 years away from year. If random draws keep landing out of
// range, the offset is widened step by step until three decoys exist.
func DecoyYears(rng Source, year int) []int {
	seen := make(map[int]struct{}, decoyCount)
	decoys := make([]int, 0, decoyCount)
	accept := func(candidate int) {
		if candidate < YearMin || candidate > YearMax || candidate == year {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		decoys = append(decoys, candidate)
	}

	for attempt := 0; attempt < maxDecoyAttempts && len(decoys) < decoyCount; attempt++ {
		offset := decoyOffsetMin + rng.IntN(decoyOffsetMax-decoyOffsetMin+1)
		if rng.IntN(2) == 0 {
			offset = -offset
		}
		accept(year + offset)
	}

	for offset := max(decoyOffsetMin, distanceToRange(year)); len(decoys) < decoyCount; offset++ {
		signs := [2]int{-1, 1}
		if rng.IntN(2) == 1 {
			signs[0], signs[1] = signs[1], signs[0]
		}
		for _, sign := range signs {
			if len(decoys) < decoyCount {
				accept(year + sign*offset)
			}
		}
	}
	return decoys
}

func distanceToRange(year int) int {
	switch {
	case year < YearMin:
		return YearMin - year
	case year > YearMax:
		return year - YearMax
	default:
		return 0
	}
}

func byYear(a, b domain.WorkItem) int {
	return cmp.Compare(a.Year, b.Year)
}
