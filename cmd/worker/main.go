package main

import (
	"log"
	"os"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"ai-podcaster/internal/db"
	"ai-podcaster/internal/feed"
	"ai-podcaster/internal/generator"
	"ai-podcaster/internal/pipeline"
	"ai-podcaster/internal/store"
	"ai-podcaster/internal/synth"
	"ai-podcaster/internal/worker"
	"ai-podcaster/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// telegramNotifier reports pipeline outcomes back to the chat that
// requested the episode.
type telegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func (n *telegramNotifier) Notify(chatID int64, text string) {
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("failed to notify chat %d: %v", chatID, err)
	}
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	db.InitDB()

	port := envOr("PORT", "8080")
	baseURL := envOr("BASE_URL", "http://localhost:"+port)
	redisAddr := envOr("REDIS_ADDR", "127.0.0.1:6379")
	audioPath := envOr("AUDIO_STORAGE_PATH", "audio")

	var notifier worker.Notifier
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		bot, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			log.Fatalf("could not create telegram bot: %v", err)
		}
		notifier = &telegramNotifier{bot: bot}
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			// Pipeline runs for the same user are serialized by the
			// manager itself; across users they may run in parallel.
			Concurrency: 4,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
		},
	)

	manager := newPipelineManager(baseURL, audioPath)
	taskHandler := worker.NewTaskHandler(manager, notifier)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeGeneratePodcast, taskHandler.HandleGeneratePodcastTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}

func newPipelineManager(baseURL, audioPath string) *pipeline.Manager {
	apiKey := os.Getenv("OPENAI_API_KEY")
	gen := generator.New(apiKey, os.Getenv("OPENAI_API_URL"), envSeconds("OPENAI_TIMEOUT_SEC"))
	tts := synth.New(apiKey, os.Getenv("OPENAI_TTS_API_URL"), envSeconds("TTS_TIMEOUT_SEC"))
	st := store.New(audioPath, baseURL, envInt64("AUDIO_USER_QUOTA_BYTES"))
	return pipeline.NewManager(gen, tts, st, db.Ledger{}, feed.Publisher{BaseURL: baseURL})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envSeconds(key string) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func envInt64(key string) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
