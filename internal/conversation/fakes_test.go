package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/internal/domain"
	apperrors "github.com/Proton-105/mensa-bot/internal/errors"
	"github.com/Proton-105/mensa-bot/internal/i18n"
	"github.com/Proton-105/mensa-bot/internal/state"
)

const ownerID int64 = 4242

var fixedNow = time.Date(2024, 5, 6, 15, 30, 0, 0, time.UTC)

type fakeMenus struct {
	mu       sync.Mutex
	snapshot *domain.MenuSnapshot
	err      error
	calls    []int
}

func (f *fakeMenus) Fetch(ctx context.Context, canteenID int) (*domain.MenuSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, canteenID)
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type fakeMatcher struct {
	mu           sync.Mutex
	result       domain.MatchResult
	descriptions []string
}

func (f *fakeMatcher) Match(ctx context.Context, snapshot *domain.MenuSnapshot, description string) domain.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.descriptions = append(f.descriptions, description)
	return f.result
}

type fakeRecords struct {
	mu      sync.Mutex
	err     error
	records []*domain.MealRecord
}

func (f *fakeRecords) Append(ctx context.Context, record *domain.MealRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type failingStorage struct {
	state.Storage
}

func (failingStorage) Load(ctx context.Context) (*state.Conversation, error) {
	return nil, errors.New("redis unavailable")
}

type fixture struct {
	engine  *Engine
	storage *state.MemoryStorage
	menus   *fakeMenus
	matcher *fakeMatcher
	records *fakeRecords
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	manager, err := i18n.Load("en")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	translator := manager.Translator("en")

	now := fixedNow
	f := &fixture{
		storage: state.NewMemoryStorage(),
		menus:   &fakeMenus{snapshot: testSnapshot()},
		matcher: &fakeMatcher{result: domain.MatchResult{}},
		records: &fakeRecords{},
		clock:   &now,
	}

	f.engine = NewEngine(
		ownerID,
		f.storage,
		f.menus,
		f.matcher,
		f.records,
		translator,
		apperrors.NewHandler(log, translator),
		log,
		WithClock(func() time.Time { return *f.clock }),
	)

	return f
}

func (f *fixture) handle(t *testing.T, kind Kind, text string) Response {
	t.Helper()

	resp, err := f.engine.Handle(context.Background(), Event{Kind: kind, Sender: ownerID, Text: text})
	require.NoError(t, err)
	return resp
}

func (f *fixture) current(t *testing.T) state.Conversation {
	t.Helper()

	conv, err := f.engine.Current(context.Background())
	require.NoError(t, err)
	return conv
}

// reachDescription walks the conversation up to the description step at the given canteen.
func (f *fixture) reachDescription(t *testing.T, canteen string) {
	t.Helper()

	f.handle(t, KindScheduled, "")
	f.handle(t, KindChoice, TokenYes)
	f.handle(t, KindChoice, canteen)
	require.Equal(t, state.StepAwaitingDescription, f.current(t).Step)
}

func price(v float64) *float64 {
	return &v
}

func testSnapshot() *domain.MenuSnapshot {
	return &domain.MenuSnapshot{
		Date:    "2024-05-06",
		Canteen: domain.Canteen{ID: 538, Name: "Mensa TU Marchstraße"},
		Sections: []domain.MenuSection{
			{Title: "Salate", Meals: []domain.Meal{{Name: "Große Salatschale", Prices: []*float64{price(1.85)}}}},
			{Title: "Suppen", Meals: []domain.Meal{{Name: "Tomatensuppe", Prices: []*float64{price(0.9)}}}},
		},
	}
}

func tokens(choices []Choice) []string {
	out := make([]string, 0, len(choices))
	for _, choice := range choices {
		out = append(out, choice.Token)
	}
	return out
}
