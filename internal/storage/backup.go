package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

const backupTimeLayout = "20060102_150405"

var backupNameRe = regexp.MustCompile(`^app_backup_(\d{8}_\d{6})\.db$`)

// Backup checkpoints the WAL and copies a consistent snapshot to
// backups/app_backup_YYYYMMDD_HHMMSS.db, then applies the
// 7-daily/4-weekly/12-monthly retention policy from §4.1.
func (e *Engine) Backup(ctx context.Context, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("app_backup_%s.db", now.Format(backupTimeLayout))
	dest := filepath.Join(dir, name)

	if _, err := e.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("checkpoint wal: %w", err)
	}

	// VACUUM INTO produces a compact, consistent single-file copy without
	// requiring the caller to stop writers, per SQLite's online-backup
	// guarantees once checkpointed into WAL mode.
	if _, err := e.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return "", fmt.Errorf("vacuum into backup: %w", err)
	}

	e.log.Info().Str("backup", dest).Msg("backup created")

	if err := e.applyRetention(dir, now); err != nil {
		e.log.Warn().Err(err).Msg("backup retention cleanup failed")
	}
	return dest, nil
}

// Restore copies the backup file over opts.Path and opens it with Open,
// which re-verifies startup invariants. It does not close an Engine that is
// already open on opts.Path.
func Restore(ctx context.Context, opts Options, backupPath string) (*Engine, error) {
	if _, err := os.Stat(backupPath); err != nil {
		return nil, fmt.Errorf("backup file not found: %w", err)
	}
	if err := copyFile(backupPath, opts.Path); err != nil {
		return nil, fmt.Errorf("restore copy: %w", err)
	}
	return Open(ctx, opts)
}

func copyFile(src, dst string) error {
	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, in, 0o644)
}

// applyRetention keeps up to 7 backups younger than 7 days, then the newest
// remaining backup of each of up to 4 ISO weeks, then the newest remaining
// backup of each of up to 12 months, and removes the rest.
func (e *Engine) applyRetention(dir string, now time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type backup struct {
		name string
		when time.Time
	}
	var backups []backup
	for _, ent := range entries {
		m := backupNameRe.FindStringSubmatch(ent.Name())
		if m == nil {
			continue
		}
		when, err := time.Parse(backupTimeLayout, m[1])
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: ent.Name(), when: when})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].when.After(backups[j].when) })

	keep := map[string]bool{}
	dailyKept, weeklyKept, monthlyKept := 0, 0, 0
	seenWeeks := map[string]bool{}
	seenMonths := map[string]bool{}

	for _, b := range backups {
		age := now.Sub(b.when)
		if age < 7*24*time.Hour && dailyKept < 7 {
			keep[b.name] = true
			dailyKept++
			continue
		}
		year, week := b.when.ISOWeek()
		weekKey := fmt.Sprintf("%d-%d", year, week)
		if !seenWeeks[weekKey] && weeklyKept < 4 {
			keep[b.name] = true
			seenWeeks[weekKey] = true
			weeklyKept++
			continue
		}
		monthKey := b.when.Format("2006-01")
		if !seenMonths[monthKey] && monthlyKept < 12 {
			keep[b.name] = true
			seenMonths[monthKey] = true
			monthlyKept++
		}
	}

	for _, b := range backups {
		if !keep[b.name] {
			if err := os.Remove(filepath.Join(dir, b.name)); err != nil {
				e.log.Warn().Err(err).Str("backup", b.name).Msg("failed to remove expired backup")
			}
		}
	}
	return nil
}
