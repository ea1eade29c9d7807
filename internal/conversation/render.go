package conversation

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Proton-105/mensa-bot/internal/domain"
	"github.com/Proton-105/mensa-bot/internal/i18n"
)

// script renders the bot's messages in the configured language.
type script struct {
	translator i18n.Translator
	now        func() time.Time
}

func (s *script) t(key string) string {
	if s.translator == nil {
		return key
	}
	return s.translator.T(key)
}

func (s *script) text(key string) Message {
	return Message{Text: s.t(key)}
}

func (s *script) askVisited() Message {
	return Message{
		Text: s.t("conversation.ask_visited"),
		Choices: []Choice{
			{Label: s.t("buttons.yes"), Token: TokenYes},
			{Label: s.t("buttons.no"), Token: TokenNo},
		},
		Layout: LayoutRow,
	}
}

func (s *script) askCanteen() Message {
	choices := make([]Choice, 0, len(domain.Canteens))
	for _, canteen := range domain.Canteens {
		choices = append(choices, Choice{Label: canteen.Name, Token: canteen.Name})
	}

	return Message{
		Text:    s.t("conversation.ask_canteen"),
		Choices: choices,
		Layout:  LayoutColumn,
	}
}

// summary renders the match as HTML with the correct/incorrect buttons.
// Category and item names come from the menu and are escaped.
func (s *script) summary(result domain.MatchResult) Message {
	var b strings.Builder
	b.WriteString(s.t("conversation.summary_header"))
	b.WriteString("\n\n")

	if lines := result.Summary(htmlLine); lines != "" {
		b.WriteString(lines)
	} else {
		b.WriteString(s.t("conversation.summary_empty"))
	}

	b.WriteString("\n\n")
	total := fmt.Sprintf("<code>%s</code>", FormatTotal(result.Total()))
	if s.translator == nil {
		b.WriteString(total)
	} else {
		b.WriteString(s.translator.Format("conversation.summary_total", map[string]string{"total": total}))
	}

	return Message{
		Text:   b.String(),
		Format: FormatHTML,
		Choices: []Choice{
			{Label: s.t("buttons.correct"), Token: TokenCorrect},
			{Label: s.t("buttons.incorrect"), Token: TokenIncorrect},
		},
		Layout: LayoutRow,
	}
}

// FormatTotal renders a price total with two decimals and the euro sign.
func FormatTotal(total float64) string {
	return fmt.Sprintf("%.2f€", total)
}

func htmlLine(line domain.SummaryLine) string {
	escaped := make([]string, 0, len(line.Items))
	for _, item := range line.Items {
		escaped = append(escaped, html.EscapeString(item))
	}
	return fmt.Sprintf("<b>%s:</b> %s", html.EscapeString(line.Category), strings.Join(escaped, ", "))
}
