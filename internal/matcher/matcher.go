// Package matcher resolves a free-text lunch description against a menu
// snapshot using a chat completion model.
package matcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Proton-105/mensa-bot/internal/domain"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// Completer sends a system prompt and a user message to a language model
// and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Matcher maps descriptions onto menu items.
type Matcher struct {
	completer Completer
	timeout   time.Duration
	log       *slog.Logger
}

// New creates a Matcher. A non-positive timeout only relies on the caller's context.
func New(completer Completer, timeout time.Duration, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}

	return &Matcher{
		completer: completer,
		timeout:   timeout,
		log:       log,
	}
}

// Match returns the menu items the description most likely refers to.
// It never fails: any problem yields an empty result.
func (m *Matcher) Match(ctx context.Context, snapshot *domain.MenuSnapshot, description string) domain.MatchResult {
	prompt, err := BuildPrompt(snapshot)
	if err != nil {
		m.log.Error("failed to build matcher prompt", slog.Any("error", err))
		metrics.RecordMatcherResult("failed")
		return domain.MatchResult{}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := m.completer.Complete(ctx, prompt, description)
	if err != nil {
		m.log.Warn("completion failed", slog.Any("error", err), slog.Duration("duration", time.Since(start)))
		metrics.RecordMatcherResult("failed")
		return domain.MatchResult{}
	}

	parsed, err := ParseResult(raw)
	if err != nil {
		m.log.Warn("discarding malformed completion", slog.Any("error", err), slog.Int("length", len(raw)))
		metrics.RecordMatcherResult("malformed")
		return domain.MatchResult{}
	}

	result := restrictToMenu(parsed, snapshot)
	if dropped := parsed.Count() - result.Count(); dropped > 0 {
		m.log.Info("dropped items not on the menu", slog.Int("dropped", dropped))
	}

	if result.Count() == 0 {
		metrics.RecordMatcherResult("empty")
	} else {
		metrics.RecordMatcherResult("matched")
	}

	m.log.Debug("description matched",
		slog.Int("items", result.Count()),
		slog.Duration("duration", time.Since(start)),
	)

	return result
}

// restrictToMenu keeps only items whose name appears on the menu and takes
// their price from the menu entry.
func restrictToMenu(parsed domain.MatchResult, snapshot *domain.MenuSnapshot) domain.MatchResult {
	partitioned := Partition(snapshot)

	result := make(domain.MatchResult, len(parsed))
	for category, items := range parsed {
		for _, item := range items {
			meal, ok := lookupMeal(partitioned, category, item.Name)
			if !ok {
				continue
			}
			result[category] = append(result[category], domain.MatchedItem{
				Name:  meal.Name,
				Price: meal.FirstPrice(),
			})
		}
	}

	return result
}

func lookupMeal(partitioned map[string][]domain.Meal, category, name string) (domain.Meal, bool) {
	name = strings.TrimSpace(name)

	for _, meal := range partitioned[category] {
		if meal.Name == name {
			return meal, true
		}
	}

	for _, c := range domain.Categories {
		for _, meal := range partitioned[c.Name] {
			if strings.EqualFold(meal.Name, name) {
				return meal, true
			}
		}
	}

	return domain.Meal{}, false
}
