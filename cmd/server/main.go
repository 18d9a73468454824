package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"ai-podcaster/internal/db"
	"ai-podcaster/internal/feed"
	"ai-podcaster/internal/generator"
	"ai-podcaster/internal/handlers"
	"ai-podcaster/internal/middleware"
	"ai-podcaster/internal/pipeline"
	"ai-podcaster/internal/store"
	"ai-podcaster/internal/synth"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	manager := newPipelineManager(baseURL, audioPath)
	h := handlers.New(manager, asynqClient, audioPath)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/rss/{uuid}", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/audio/{userID}/{filename}", h.ServeAudioFile).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware)
	rl := middleware.NewRateLimiterMiddleware(rate.Every(time.Minute), 5)
	api.Use(rl.Middleware)
	api.HandleFunc("/generate", h.PostGenerate).Methods(http.MethodPost)
	api.HandleFunc("/feed", h.GetFeedDocument).Methods(http.MethodGet)

	go h.StartTelegramBot()

	log.Printf("Starting server on :%s (commit: %s)", port, CommitSHA)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
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
