package db

import (
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
)

// DB is the global database connection.
var DB *sqlx.DB

// schema holds the users and episodes tables. Idempotent, applied on
// every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	telegram_id BIGINT UNIQUE NOT NULL,
	telegram_username TEXT NOT NULL DEFAULT '',
	rss_uuid UUID UNIQUE NOT NULL DEFAULT gen_random_uuid(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS episodes (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id),
	intent TEXT NOT NULL,
	language TEXT NOT NULL,
	title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	audio_path TEXT NOT NULL,
	audio_url TEXT NOT NULL,
	audio_size_bytes BIGINT NOT NULL,
	duration_sec INT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	raw_meta JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS episodes_user_published_idx
	ON episodes (user_id, published_at DESC);
`

// InitDB connects to Postgres and applies the schema. The server and
// the worker both call it, so the schema must stay idempotent.
func InitDB() {
	var err error
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	DB, err = sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(30 * time.Minute)

	if err := ensureSchema(); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	log.Println("Database connection established")
}

func ensureSchema() error {
	_, err := DB.Exec(schema)
	return err
}
