package models

import "time"

// User represents a user in the database. RSSUUID is the public,
// unguessable key under which the user's feed is served.
type User struct {
	ID               string    `db:"id"`
	TelegramID       int64     `db:"telegram_id"`
	TelegramUsername string    `db:"telegram_username"`
	RSSUUID          string    `db:"rss_uuid"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
