package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
	"github.com/Proton-105/mensa-bot/internal/domain"
)

func TestBuilderChoicesRow(t *testing.T) {
	b := keyboard.NewBuilder(nil)

	markup, err := b.Choices([]conversation.Choice{
		{Label: "Yes", Token: conversation.TokenYes},
		{Label: "No", Token: conversation.TokenNo},
	}, conversation.LayoutRow)
	require.NoError(t, err)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)

	assert.Equal(t, "Yes", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "choice:yes", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "choice:no", markup.InlineKeyboard[0][1].Data)
	assert.Empty(t, markup.InlineKeyboard[0][0].Unique)
}

func TestBuilderChoicesColumnFitsAllCanteens(t *testing.T) {
	b := keyboard.NewBuilder(nil)

	choices := make([]conversation.Choice, 0, len(domain.Canteens))
	for _, canteen := range domain.Canteens {
		choices = append(choices, conversation.Choice{Label: canteen.Name, Token: canteen.Name})
	}

	markup, err := b.Choices(choices, conversation.LayoutColumn)
	require.NoError(t, err)
	require.Len(t, markup.InlineKeyboard, len(domain.Canteens))

	for i, row := range markup.InlineKeyboard {
		require.Len(t, row, 1)
		token, ok := keyboard.ChoiceToken(row[0].Data)
		require.True(t, ok)
		assert.Equal(t, domain.Canteens[i].Name, token)
	}
}

func TestBuilderNoChoices(t *testing.T) {
	markup, err := keyboard.NewBuilder(nil).Choices(nil, conversation.LayoutRow)
	require.NoError(t, err)
	assert.Nil(t, markup)
}

func TestBuilderRejectsOversizedToken(t *testing.T) {
	_, err := keyboard.NewBuilder(nil).Choices([]conversation.Choice{
		{Label: "long", Token: strings.Repeat("x", keyboard.CallbackDataLimitBytes)},
	}, conversation.LayoutRow)
	assert.Error(t, err)
}

func TestChoiceToken(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		want  string
		found bool
	}{
		{name: "choice", data: "choice:correct", want: "correct", found: true},
		{name: "telebot prefix", data: "\fchoice:no", want: "no", found: true},
		{name: "canteen with separator", data: "choice:Mensa: Süd", want: "Mensa: Süd", found: true},
		{name: "other unique", data: "settings:en"},
		{name: "no data", data: "choice"},
		{name: "empty", data: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyboard.ChoiceToken(tt.data)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
