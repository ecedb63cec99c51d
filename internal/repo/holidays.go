package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pinggolf/replenish-engine/internal/settingsdoc"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Holidays is the singleton holidays-blob repository (§5, §6).
type Holidays struct {
	eng *storage.Engine
}

func NewHolidays(eng *storage.Engine) *Holidays { return &Holidays{eng: eng} }

// Get returns the user-declared holidays document (without the builtin
// national set merged in — callers wanting the merged view call
// settingsdoc.Holidays.Merged themselves).
func (r *Holidays) Get(ctx context.Context) (settingsdoc.Holidays, error) {
	var data string
	err := r.eng.DB().QueryRowContext(ctx, "SELECT data FROM holidays WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return settingsdoc.Holidays{}, nil
	}
	if err != nil {
		return settingsdoc.Holidays{}, classify("get holidays", err)
	}
	var h settingsdoc.Holidays
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return settingsdoc.Holidays{}, err
	}
	return h, nil
}

// Put atomically replaces the holidays document.
func (r *Holidays) Put(ctx context.Context, h settingsdoc.Holidays) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO holidays (id, data) VALUES (1, ?)", string(data))
		return classify("put holidays", err)
	})
}
