package db

import (
	"log"

	"ai-podcaster/internal/models"
)

// UpsertUser inserts a new user or updates an existing one based on the
// Telegram ID.
func UpsertUser(telegramID int64, username string) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, telegram_username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET
			telegram_username = EXCLUDED.telegram_username,
			updated_at = NOW()
		RETURNING id, telegram_id, telegram_username, rss_uuid, created_at, updated_at
	`
	user := &models.User{}
	err := DB.Get(user, query, telegramID, username)
	if err != nil {
		log.Printf("Error upserting user: %v", err)
		return nil, err
	}
	return user, nil
}

func GetUserByID(id string) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByRSSUUID(uuid string) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE rss_uuid = $1", uuid)
	if err != nil {
		return nil, err
	}
	return user, nil
}
