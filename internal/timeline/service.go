// Package timeline serves the timeline, chronology-test and date-quiz
// operations for one session, backed by a SessionStore and an Extractor.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/chrononote/internal/domain"
	"github.com/ashureev/chrononote/internal/extract"
	"github.com/ashureev/chrononote/internal/quiz"
	"github.com/ashureev/chrononote/internal/search"
	"github.com/ashureev/chrononote/internal/store"
)

// DefaultSessionTTL is the sliding retention window for session data.
const DefaultSessionTTL = 7200 * time.Second

// ErrExtractionUnavailable is returned by Extract and Upload when the service
// runs without an extractor.
var ErrExtractionUnavailable = errors.New("extraction is not configured")

// Config holds Service settings.
type Config struct {
	SessionTTL     time.Duration
	ExtractTimeout time.Duration
}

// Service runs session-scoped operations.
type Service struct {
	store     store.SessionStore
	extractor extract.Extractor
	rng       quiz.Source
	cfg       Config
	logger    *slog.Logger
}

// NewService creates a Service. A nil rng uses quiz.DefaultSource and a nil
// logger uses slog.Default. A nil extractor leaves the other operations
// available.
func NewService(s store.SessionStore, e extract.Extractor, rng quiz.Source, cfg Config, logger *slog.Logger) *Service {
	if rng == nil {
		rng = quiz.DefaultSource()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Service{store: s, extractor: e, rng: rng, cfg: cfg, logger: logger}
}

// Extract runs the extractor over text without storing anything.
func (s *Service) Extract(ctx context.Context, text string) ([]domain.ExtractedWork, error) {
	if s.extractor == nil {
		return nil, ErrExtractionUnavailable
	}
	if s.cfg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ExtractTimeout)
		defer cancel()
	}

	start := time.Now()
	works, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract works: %w", err)
	}
	s.logger.Info("Extraction complete", "works", len(works), "chars", len(text), "duration", time.Since(start))
	return works, nil
}

// Upload extracts works from text and replaces the session's list with them.
func (s *Service) Upload(ctx context.Context, sessionID, text string) ([]domain.WorkItem, error) {
	extracted, err := s.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.Commit(ctx, sessionID, extracted)
}

// Commit assigns IDs to extracted works and replaces the session's list.
func (s *Service) Commit(ctx context.Context, sessionID string, extracted []domain.ExtractedWork) ([]domain.WorkItem, error) {
	works, err := domain.NewWorkItems(extracted)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, works, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("save session works: %w", err)
	}
	s.logger.Info("Session works saved", "session_id", sessionID, "works", len(works))
	return works, nil
}

// Timeline returns the session's works sorted by year.
func (s *Service) Timeline(ctx context.Context, sessionID string) ([]domain.WorkItem, error) {
	works, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sorted := quiz.Timeline(works)
	s.refresh(ctx, sessionID)
	return sorted, nil
}

// ChronologyTest returns a shuffled, year-less sample of the session's works.
func (s *Service) ChronologyTest(ctx context.Context, sessionID string) ([]domain.TestWork, error) {
	works, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	test := quiz.ChronologyTest(s.rng, works)
	s.refresh(ctx, sessionID)
	return test, nil
}

// CheckOrder validates a proposed chronological order.
func (s *Service) CheckOrder(ctx context.Context, sessionID string, orderedIDs []string) (quiz.OrderResult, error) {
	if len(orderedIDs) == 0 {
		return quiz.OrderResult{}, domain.InvalidInputf("ordered_ids must not be empty")
	}
	works, err := s.load(ctx, sessionID)
	if err != nil {
		return quiz.OrderResult{}, err
	}
	result, err := quiz.CheckOrder(works, orderedIDs)
	if err != nil {
		return quiz.OrderResult{}, err
	}
	s.refresh(ctx, sessionID)
	return result, nil
}

// NextQuestion builds a date-quiz question from the session's works.
func (s *Service) NextQuestion(ctx context.Context, sessionID string) (quiz.Question, error) {
	works, err := s.load(ctx, sessionID)
	if err != nil {
		return quiz.Question{}, err
	}
	q, err := quiz.NextQuestion(s.rng, works)
	if err != nil {
		return quiz.Question{}, err
	}
	s.refresh(ctx, sessionID)
	return q, nil
}

// CheckAnswer validates a date-quiz answer.
func (s *Service) CheckAnswer(ctx context.Context, sessionID, workID string, selectedYear int) (quiz.AnswerResult, error) {
	works, err := s.load(ctx, sessionID)
	if err != nil {
		return quiz.AnswerResult{}, err
	}
	result, err := quiz.CheckAnswer(works, workID, selectedYear)
	if err != nil {
		return quiz.AnswerResult{}, err
	}
	s.refresh(ctx, sessionID)
	return result, nil
}

// Search finds the session's works matching query.
func (s *Service) Search(ctx context.Context, sessionID, query string, limit int) ([]search.Result, error) {
	works, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	results, err := search.Works(works, query, limit)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, sessionID)
	return results, nil
}

// Clear deletes the session's data.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("Session cleared", "session_id", sessionID)
	return nil
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) load(ctx context.Context, sessionID string) ([]domain.WorkItem, error) {
	works, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session works: %w", err)
	}
	return works, nil
}

// refresh extends the session's expiry. Failures are logged and do not fail
// the request that already produced its result.
func (s *Service) refresh(ctx context.Context, sessionID string) {
	if err := s.store.Refresh(ctx, sessionID, s.cfg.SessionTTL); err != nil {
		s.logger.Warn("Failed to refresh session TTL", "session_id", sessionID, "error", err)
	}
}
