package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Episode is one durable published unit of generated audio. Episodes are
// append-only: once inserted they are never mutated.
type Episode struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	Intent         string    `db:"intent"`
	Language       string    `db:"language"`
	Title          string    `db:"title"`
	Summary        string    `db:"summary"`
	AudioPath      string    `db:"audio_path"`
	AudioURL       string    `db:"audio_url"`
	AudioSizeBytes int64     `db:"audio_size_bytes"`
	DurationSec    int       `db:"duration_sec"`
	PublishedAt    time.Time `db:"published_at"`
	Meta           MetaMap   `db:"raw_meta"`
}

// MetaMap holds free-form generation metadata (model identifiers,
// voices, prompt parameters). Stored as JSONB.
type MetaMap map[string]string

func (m MetaMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *MetaMap) Scan(src interface{}) error {
	if src == nil {
		*m = MetaMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into MetaMap", src)
	}
	return json.Unmarshal(b, m)
}
