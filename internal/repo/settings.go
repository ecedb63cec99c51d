package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pinggolf/replenish-engine/internal/settingsdoc"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Settings is the singleton settings-blob repository (§5 "Shared resource
// policy", §6). Readers always go through Get; writers replace atomically.
type Settings struct {
	eng *storage.Engine
}

func NewSettings(eng *storage.Engine) *Settings { return &Settings{eng: eng} }

// Get returns the current settings document, falling back to defaults if
// the singleton row has never been written.
func (r *Settings) Get(ctx context.Context) (settingsdoc.Settings, error) {
	var data string
	err := r.eng.DB().QueryRowContext(ctx, "SELECT data FROM settings WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return settingsdoc.Default(), nil
	}
	if err != nil {
		return settingsdoc.Settings{}, classify("get settings", err)
	}
	var s settingsdoc.Settings
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return settingsdoc.Settings{}, err
	}
	return s, nil
}

// Put atomically replaces the settings document.
func (r *Settings) Put(ctx context.Context, s settingsdoc.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO settings (id, data) VALUES (1, ?)", string(data))
		return classify("put settings", err)
	})
}

// Reset replaces the settings document with built-in defaults.
func (r *Settings) Reset(ctx context.Context) error {
	return r.Put(ctx, settingsdoc.Default())
}
