package ratelimit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Proton-105/mensa-bot/pkg/config"
)

// Rule allows Limit updates per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Rules encapsulates the configured limit and the commands it never applies to.
type Rules struct {
	config config.RateLimitConfig
	exempt map[string]struct{}
}

// NewRules constructs rate limiting rules. Updates starting with one of the
// exempt commands are never limited.
func NewRules(cfg config.RateLimitConfig, exempt ...string) *Rules {
	r := &Rules{config: cfg, exempt: make(map[string]struct{}, len(exempt))}
	for _, command := range exempt {
		r.exempt[strings.ToLower(command)] = struct{}{}
	}
	return r
}

// Enabled reports whether updates are limited at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// PerUser returns the rule applied to every user.
func (r *Rules) PerUser() (Rule, error) {
	if r.config.Window <= 0 {
		return Rule{}, errors.New("window duration is not set")
	}
	if r.config.Limit <= 0 {
		return Rule{}, errors.New("limit is not set")
	}
	return Rule{Limit: r.config.Limit, Window: r.config.Window}, nil
}

// Key is the limiter key of a user.
func (r *Rules) Key(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Exempt reports whether text is an exempt command, with or without a @bot suffix.
func (r *Rules) Exempt(text string) bool {
	if r == nil || len(r.exempt) == 0 || !strings.HasPrefix(text, "/") {
		return false
	}

	command := strings.ToLower(strings.Fields(text)[0])
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}

	_, ok := r.exempt[command]
	return ok
}
