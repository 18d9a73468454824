package handlers

import (
	"fmt"
	"log"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-podcaster/internal/db"
	"ai-podcaster/internal/models"
	"ai-podcaster/pkg/tasks"
)

func (h *Handlers) StartTelegramBot() {
	bot, err := tgbotapi.NewBotAPI(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		log.Panic(err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil { // ignore any non-Message updates
			continue
		}

		if !update.Message.IsCommand() {
			// A plain message is a briefing request by default.
			h.enqueueGeneration(bot, update.Message, models.IntentBriefing, update.Message.Text)
			continue
		}

		switch update.Message.Command() {
		case "wellness":
			h.enqueueGeneration(bot, update.Message, models.IntentWellness, update.Message.CommandArguments())
		case "briefing":
			h.enqueueGeneration(bot, update.Message, models.IntentBriefing, update.Message.CommandArguments())
		case "dialogue":
			h.enqueueGeneration(bot, update.Message, models.IntentDialogue, update.Message.CommandArguments())
		case "feed":
			h.handleFeedCommand(bot, update.Message)
		default:
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "I don't know that command")
			bot.Send(msg)
		}
	}
}

func (h *Handlers) enqueueGeneration(bot *tgbotapi.BotAPI, message *tgbotapi.Message, intent models.Intent, text string) {
	log.Printf("[%s] /%s %s", message.From.UserName, intent, text)

	if strings.TrimSpace(text) == "" {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Tell me what the episode should be about.")
		bot.Send(msg)
		return
	}

	user, err := db.UpsertUser(message.From.ID, message.From.UserName)
	if err != nil {
		log.Printf("Error upserting user: %v", err)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Error creating user.")
		bot.Send(msg)
		return
	}

	task, err := tasks.NewGeneratePodcastTask(tasks.GeneratePodcastPayload{
		UserID:   user.ID,
		ChatID:   message.Chat.ID,
		Intent:   string(intent),
		Message:  text,
		Language: languageFor(message.From),
	})
	if err != nil {
		log.Printf("Error creating task: %v", err)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Internal server error")
		bot.Send(msg)
		return
	}

	if _, err := h.asynqClient.Enqueue(task); err != nil {
		log.Printf("Error enqueuing task: %v", err)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Internal server error")
		bot.Send(msg)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "Generating your episode, I'll send the feed link when it's ready.")
	bot.Send(msg)
}

func (h *Handlers) handleFeedCommand(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	user, err := db.UpsertUser(message.From.ID, message.From.UserName)
	if err != nil {
		log.Printf("Error upserting user: %v", err)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Error creating user.")
		bot.Send(msg)
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Your feed: %s/rss/%s", baseURL, user.RSSUUID))
	bot.Send(msg)
}

// languageFor picks the episode language from the Telegram client
// language, defaulting to French.
func languageFor(from *tgbotapi.User) string {
	if from != nil && models.SupportedLanguages[from.LanguageCode] {
		return from.LanguageCode
	}
	return "fr"
}
