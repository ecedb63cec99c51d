// Package debugbundle exports a support snapshot of the engine: a
// consistent database copy, recent audit history, aggregate stats,
// environment info, and the current settings/holidays documents, all
// written under one directory with a manifest, README, and optional gzip
// compression (§4.9, C9).
//
// Grounded on the teacher's tabular-export idiom (internal/db exposes CSV
// shaped query results for bulk-operation reports) and
// internal/storage/backup.go's VACUUM INTO snapshot mechanism.
package debugbundle

import (
	"archive/tar"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/pinggolf/replenish-engine/internal/auditlog"
	"github.com/pinggolf/replenish-engine/internal/workflow"
)

// Options controls what a bundle contains.
type Options struct {
	OutDir        string // destination directory; created if missing
	AuditRowLimit int    // default 500
	Gzip          bool   // also produce <OutDir>.tar.gz alongside the directory
}

// Manifest lists what a bundle contains and when it was built.
type Manifest struct {
	CreatedAt time.Time `json:"created_at"`
	Files     []string  `json:"files"`
}

// Stats is the aggregate counts document written as stats.json.
type Stats struct {
	SKUTotal        int            `json:"sku_total"`
	SKUInAssortment int            `json:"sku_in_assortment"`
	TransactionRows int            `json:"transaction_rows"`
	OrderRows       int            `json:"order_rows"`
	OrdersByStatus  map[string]int `json:"orders_by_status"`
	SalesRows       int            `json:"sales_rows"`
	AuditRows       int            `json:"audit_rows"`
}

// Environment is the environment-info document written as environment.json.
type Environment struct {
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	Hostname  string `json:"hostname"`
}

const readmeContents = `This directory is a support export of the replenishment engine.

- snapshot.db       consistent VACUUM INTO copy of the live database
- audit_log.csv     the most recent audit_log rows
- stats.json        aggregate row counts across the core tables
- environment.json  runtime/OS info of the process that built this bundle
- settings.json     the current settings document
- holidays.json     the current (unmerged) holidays document
- manifest.json     file list and build timestamp

Nothing here is a backup suitable for Restore; use Engine.Storage().Backup
for that. This bundle is read-only diagnostic material.
`

// Build assembles a bundle under opts.OutDir and returns the directory path.
func Build(ctx context.Context, e *workflow.Engine, opts Options) (string, error) {
	if opts.AuditRowLimit <= 0 {
		opts.AuditRowLimit = 500
	}
	if opts.OutDir == "" {
		opts.OutDir = fmt.Sprintf("debug_bundle_%s", time.Now().UTC().Format("20060102_150405"))
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}

	var files []string

	snapshotPath := filepath.Join(opts.OutDir, "snapshot.db")
	if _, err := e.Storage().DB().ExecContext(ctx, "VACUUM INTO ?", snapshotPath); err != nil {
		return "", fmt.Errorf("vacuum into snapshot: %w", err)
	}
	files = append(files, "snapshot.db")

	if err := writeAuditCSV(ctx, e, filepath.Join(opts.OutDir, "audit_log.csv"), opts.AuditRowLimit); err != nil {
		return "", fmt.Errorf("write audit csv: %w", err)
	}
	files = append(files, "audit_log.csv")

	stats, err := collectStats(ctx, e)
	if err != nil {
		return "", fmt.Errorf("collect stats: %w", err)
	}
	if err := writeJSON(filepath.Join(opts.OutDir, "stats.json"), stats); err != nil {
		return "", err
	}
	files = append(files, "stats.json")

	hostname, _ := os.Hostname()
	env := Environment{GoVersion: runtime.Version(), GOOS: runtime.GOOS, GOARCH: runtime.GOARCH, Hostname: hostname}
	if err := writeJSON(filepath.Join(opts.OutDir, "environment.json"), env); err != nil {
		return "", err
	}
	files = append(files, "environment.json")

	settings, err := e.Settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("get settings: %w", err)
	}
	if err := writeJSON(filepath.Join(opts.OutDir, "settings.json"), settings); err != nil {
		return "", err
	}
	files = append(files, "settings.json")

	holidays, err := e.Holidays.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("get holidays: %w", err)
	}
	if err := writeJSON(filepath.Join(opts.OutDir, "holidays.json"), holidays); err != nil {
		return "", err
	}
	files = append(files, "holidays.json")

	if err := os.WriteFile(filepath.Join(opts.OutDir, "README.md"), []byte(readmeContents), 0o644); err != nil {
		return "", err
	}
	files = append(files, "README.md")

	manifest := Manifest{CreatedAt: time.Now().UTC(), Files: files}
	if err := writeJSON(filepath.Join(opts.OutDir, "manifest.json"), manifest); err != nil {
		return "", err
	}

	if opts.Gzip {
		if err := gzipDir(opts.OutDir, opts.OutDir+".tar.gz"); err != nil {
			return "", fmt.Errorf("gzip bundle: %w", err)
		}
	}

	return opts.OutDir, nil
}

func writeAuditCSV(ctx context.Context, e *workflow.Engine, path string, limit int) error {
	events, err := e.Audit.List(ctx, auditlog.Filter{Limit: limit})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"audit_id", "timestamp", "operation", "user", "sku", "details", "run_id"}); err != nil {
		return err
	}
	for _, ev := range events {
		if err := w.Write([]string{
			strconv.FormatInt(ev.AuditID, 10),
			ev.Timestamp.UTC().Format(time.RFC3339),
			ev.Operation, ev.User, ev.SKU, ev.Details, ev.RunID,
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

func collectStats(ctx context.Context, e *workflow.Engine) (Stats, error) {
	db := e.Storage().DB()
	var s Stats

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skus").Scan(&s.SKUTotal); err != nil {
		return s, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skus WHERE in_assortment = 1").Scan(&s.SKUInAssortment); err != nil {
		return s, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&s.TransactionRows); err != nil {
		return s, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_logs").Scan(&s.OrderRows); err != nil {
		return s, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales").Scan(&s.SalesRows); err != nil {
		return s, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&s.AuditRows); err != nil {
		return s, err
	}

	s.OrdersByStatus = make(map[string]int)
	rows, err := db.QueryContext(ctx, "SELECT status, COUNT(*) FROM order_logs GROUP BY status")
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return s, err
		}
		s.OrdersByStatus[status] = count
	}
	return s, rows.Err()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// gzipDir tars and gzips dir into destPath using klauspost/compress, which
// the pack already pulls in for HTTP response compression elsewhere.
func gzipDir(dir, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	gw, err := gzip.NewWriterLevel(out, gzip.BestSpeed)
	if err != nil {
		return err
	}
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}
