package timeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/chrononote/internal/domain"
	"github.com/ashureev/chrononote/internal/quiz"
	"github.com/ashureev/chrononote/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	sessions  map[string][]domain.WorkItem
	ttls      map[string]time.Duration
	refreshes int
	getErr    error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string][]domain.WorkItem),
		ttls:     make(map[string]time.Duration),
	}
}

func (f *fakeStore) Get(_ context.Context, sessionID string) ([]domain.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	works, ok := f.sessions[sessionID]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return slices.Clone(works), nil
}

func (f *fakeStore) Save(_ context.Context, sessionID string, works []domain.WorkItem, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if works == nil {
		works = []domain.WorkItem{}
	}
	f.sessions[sessionID] = slices.Clone(works)
	f.ttls[sessionID] = ttl
	return nil
}

func (f *fakeStore) Refresh(_ context.Context, sessionID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[sessionID]; !ok {
		return store.ErrSessionNotFound
	}
	f.refreshes++
	f.ttls[sessionID] = ttl
	return nil
}

func (f *fakeStore) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeStore) DeleteExpired(context.Context) (int64, error) { return 0, nil }
func (f *fakeStore) Ping(context.Context) error                   { return nil }
func (f *fakeStore) Close() error                                 { return nil }

func (f *fakeStore) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

type fakeExtractor struct {
	works []domain.ExtractedWork
	err   error
}

func (f *fakeExtractor) Extract(context.Context, string) ([]domain.ExtractedWork, error) {
	return f.works, f.err
}

func author(s string) *string { return &s }

func newTestService(st *fakeStore, ex *fakeExtractor) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, ex, quiz.NewSeededSource(3), Config{SessionTTL: time.Hour}, logger)
}

func TestUploadStoresWorksWithIDs(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	ex := &fakeExtractor{works: []domain.ExtractedWork{
		{Title: "Leviathan", AuthorOrSource: author("Thomas Hobbes"), Year: 1651},
		{Title: "Glorious Revolution", Year: 1688},
	}}
	svc := newTestService(st, ex)

	works, err := svc.Upload(context.Background(), "sess", "some notes")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(works) != 2 || works[0].ID == "" || works[0].ID == works[1].ID {
		t.Fatalf("Upload() = %+v, want two works with distinct ids", works)
	}
	if st.ttls["sess"] != time.Hour {
		t.Errorf("ttl = %v, want 1h", st.ttls["sess"])
	}
}

func TestUploadExtractionFailure(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	upstream := errors.New("model unavailable")
	svc := newTestService(st, &fakeExtractor{err: upstream})

	_, err := svc.Upload(context.Background(), "sess", "text")
	if !errors.Is(err, upstream) {
		t.Fatalf("Upload() error = %v, want upstream error", err)
	}
	if _, ok := st.sessions["sess"]; ok {
		t.Error("failed upload must not store data")
	}
}

func TestCommitRejectsBlankTitle(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore(), &fakeExtractor{})
	_, err := svc.Commit(context.Background(), "sess", []domain.ExtractedWork{{Title: " ", Year: 1}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Commit() error = %v, want ErrInvalidInput", err)
	}
}

func TestMissingSessionIsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore(), &fakeExtractor{})
	ctx := context.Background()

	if _, err := svc.Timeline(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Timeline() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.ChronologyTest(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ChronologyTest() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.CheckOrder(ctx, "nobody", []string{"x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CheckOrder() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.NextQuestion(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("NextQuestion() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.CheckAnswer(ctx, "nobody", "x", 1900); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CheckAnswer() error = %v, want ErrNotFound", err)
	}
}

func TestEmptySessionIsValid(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	svc := newTestService(st, &fakeExtractor{})
	ctx := context.Background()

	if _, err := svc.Commit(ctx, "sess", nil); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	timeline, err := svc.Timeline(ctx, "sess")
	if err != nil || len(timeline) != 0 {
		t.Fatalf("Timeline() = %v, %v; want empty, nil", timeline, err)
	}
	test, err := svc.ChronologyTest(ctx, "sess")
	if err != nil || len(test) != 0 {
		t.Fatalf("ChronologyTest() = %v, %v; want empty, nil", test, err)
	}
	if _, err := svc.NextQuestion(ctx, "sess"); !errors.Is(err, domain.ErrNoWorks) {
		t.Fatalf("NextQuestion() error = %v, want ErrNoWorks", err)
	}
}

func TestReadsRefreshTTL(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	svc := newTestService(st, &fakeExtractor{})
	ctx := context.Background()

	works, err := svc.Commit(ctx, "sess", []domain.ExtractedWork{
		{Title: "Printing press", Year: 1440},
		{Title: "Fall of Constantinople", Year: 1453},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := svc.Timeline(ctx, "sess"); err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if _, err := svc.CheckOrder(ctx, "sess", []string{works[1].ID, works[0].ID}); err != nil {
		t.Fatalf("CheckOrder() error = %v", err)
	}
	if _, err := svc.CheckAnswer(ctx, "sess", works[0].ID, 1440); err != nil {
		t.Fatalf("CheckAnswer() error = %v", err)
	}
	if got := st.refreshCount(); got != 3 {
		t.Errorf("refreshes = %d, want 3", got)
	}
}

func TestCheckOrderValidation(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	svc := newTestService(st, &fakeExtractor{})
	ctx := context.Background()

	if _, err := svc.Commit(ctx, "sess", []domain.ExtractedWork{{Title: "A", Year: 1}}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := svc.CheckOrder(ctx, "sess", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty ids error = %v, want ErrInvalidInput", err)
	}

	_, err := svc.CheckOrder(ctx, "sess", []string{"bogus"})
	var unknown *domain.UnknownWorkError
	if !errors.As(err, &unknown) || unknown.ID != "bogus" {
		t.Errorf("unknown id error = %v, want UnknownWorkError(bogus)", err)
	}
	if got := st.refreshCount(); got != 0 {
		t.Errorf("failed checks refreshed TTL %d times", got)
	}
}

func TestStoreFailureIsInternal(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	st.getErr = errors.New("disk I/O error")
	svc := newTestService(st, &fakeExtractor{})

	_, err := svc.Timeline(context.Background(), "sess")
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Timeline() error = %v, want wrapped store failure", err)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	svc := newTestService(st, &fakeExtractor{})
	ctx := context.Background()

	if _, err := svc.Commit(ctx, "sess", []domain.ExtractedWork{
		{Title: "Moby-Dick", AuthorOrSource: author("Herman Melville"), Year: 1851},
		{Title: "Walden", AuthorOrSource: author("Henry David Thoreau"), Year: 1854},
	}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := svc.Search(ctx, "sess", "walden", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Work.Title != "Walden" {
		t.Fatalf("Search() = %+v, want Walden", got)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	svc := newTestService(st, &fakeExtractor{})
	ctx := context.Background()

	if _, err := svc.Commit(ctx, "sess", []domain.ExtractedWork{{Title: "A", Year: 1}}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := svc.Clear(ctx, "sess"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := svc.Timeline(ctx, "sess"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Timeline() after clear error = %v, want ErrNotFound", err)
	}
}

func TestExtractWithoutExtractor(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(newFakeStore(), nil, quiz.NewSeededSource(1), Config{}, logger)

	if _, err := svc.Upload(context.Background(), "sess", "notes"); !errors.Is(err, ErrExtractionUnavailable) {
		t.Fatalf("Upload() error = %v, want ErrExtractionUnavailable", err)
	}
	if _, err := svc.Commit(context.Background(), "sess", []domain.ExtractedWork{{Title: "Magna Carta", Year: 1215}}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}
