package matcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseResult decodes a completion into a MatchResult. Surrounding markdown
// code fences are tolerated; anything else that is not the expected shape is an error.
func ParseResult(raw string) (domain.MatchResult, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("empty completion")
	}

	var result domain.MatchResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}

	if result == nil {
		return nil, fmt.Errorf("completion is not an object")
	}

	for category, items := range result {
		if strings.TrimSpace(category) == "" {
			return nil, fmt.Errorf("empty category name")
		}
		for i := range items {
			if err := validate.Struct(items[i]); err != nil {
				return nil, fmt.Errorf("invalid item %d in %s: %w", i, category, err)
			}
		}
	}

	return result, nil
}

func stripCodeFence(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		body = body[newline+1:]
	} else {
		body = strings.TrimPrefix(body, "```")
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")

	return strings.TrimSpace(body)
}
