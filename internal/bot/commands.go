package bot

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/i18n"
)

// Command constants for Telegram bot commands.
const (
	CommandStart  = "/start"
	CommandCancel = "/cancel"
	CommandHelp   = "/help"
)

// menuCommands lists the commands shown in the Telegram command menu, described
// in the bot's language.
func menuCommands(translator i18n.Translator) []telebot.Command {
	commands := []string{CommandStart, CommandCancel, CommandHelp}

	menu := make([]telebot.Command, 0, len(commands))
	for _, command := range commands {
		name := strings.TrimPrefix(command, "/")
		menu = append(menu, telebot.Command{Text: name, Description: translator.T("commands." + name)})
	}
	return menu
}
