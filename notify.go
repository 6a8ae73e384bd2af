package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends best-effort Telegram updates to the operator. An empty token
// disables it so unconfigured runs stay silent.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	debug  bool
}

func NewNotifier(config *Config) (*Notifier, error) {
	n := &Notifier{chatID: config.Telegram.ChatID, debug: config.DebugMode}

	if config.Telegram.Token == "" {
		return n, nil
	}

	bot, err := tgbotapi.NewBotAPI(config.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	n.bot = bot
	return n, nil
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.bot != nil && n.chatID != 0
}

func (n *Notifier) BookingConfirmed(event *EventConfig) {
	n.send(T("notify_booked", event.Name, event.Day, event.Time))
}

func (n *Notifier) RunFailed(err error) {
	n.send(T("notify_failed", err))
}

func (n *Notifier) send(text string) {
	if !n.Enabled() {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil && n.debug {
		fmt.Printf("[DEBUG] telegram send failed: %v\n", err)
	}
}
