// enginectl is a thin maintenance entrypoint: it wires the engine library
// together for local operation and exposes its workflows as subcommands. It
// is not part of the core's tested surface (see DESIGN.md).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pinggolf/replenish-engine/internal/auditlog"
	"github.com/pinggolf/replenish-engine/internal/calendar"
	"github.com/pinggolf/replenish-engine/internal/config"
	"github.com/pinggolf/replenish-engine/internal/debugbundle"
	"github.com/pinggolf/replenish-engine/internal/storage"
	"github.com/pinggolf/replenish-engine/internal/workflow"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("ENGINECTL_ENV_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	configureLogging(cfg)

	cmd := os.Args[1]
	args := os.Args[2:]

	ctx := context.Background()
	switch cmd {
	case "migrate":
		runMigrate(ctx, cfg)
	case "backup":
		runBackup(ctx, cfg)
	case "propose":
		runPropose(ctx, cfg, args)
	case "confirm":
		runConfirm(ctx, cfg, args)
	case "receive":
		runReceive(ctx, cfg, args)
	case "reconcile":
		runReconcile(ctx, cfg, args)
	case "debug-bundle":
		runDebugBundle(ctx, cfg, args)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `enginectl <command> [flags]

Commands:
  migrate                          apply pending schema migrations and exit
  backup                           write a VACUUM INTO backup and apply retention
  propose   -sku=S1 -date=YYYY-MM-DD       build order proposal(s) for a SKU
  confirm   -sku=S1 -date=YYYY-MM-DD -user=u  propose then confirm the accepted proposals
  receive   -doc=DOC1 -date=YYYY-MM-DD -items=SKU:qty[,SKU:qty...] -user=u
  reconcile -date=YYYY-MM-DD -counts=SKU:qty[,SKU:qty...]
  debug-bundle [-out=dir] [-gzip]   export a support bundle`)
}

func configureLogging(cfg *config.Config) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openEngine(ctx context.Context, cfg *config.Config) *workflow.Engine {
	eng, err := storage.Open(ctx, storage.Options{
		Path:                cfg.DBPath,
		BusyTimeout:         cfg.BusyTimeout,
		MaxOpenConns:        cfg.MaxOpenConns,
		LeakWarnConnections: cfg.LeakWarnConnections,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage engine")
	}
	return workflow.New(eng, calendar.DefaultConfig(), workflow.NewThrottle(cfg.ThrottleRPS, cfg.ThrottleBurst))
}

func runMigrate(ctx context.Context, cfg *config.Config) {
	// storage.Open already applies every pending migration at startup; this
	// subcommand exists so an operator can trigger and confirm that step
	// without also standing up a long-running process.
	e := openEngine(ctx, cfg)
	defer e.Storage().Close()
	fmt.Println("migrations applied")
}

func runBackup(ctx context.Context, cfg *config.Config) {
	e := openEngine(ctx, cfg)
	defer e.Storage().Close()

	dest, err := e.Storage().Backup(ctx, cfg.BackupDir, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("backup failed")
	}
	fmt.Println(dest)
}

func runPropose(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("propose", flag.ExitOnError)
	sku := fs.String("sku", "", "SKU code")
	dateStr := fs.String("date", "", "order date, YYYY-MM-DD")
	fs.Parse(args)
	date := mustParseDate(*dateStr)

	e := openEngine(ctx, cfg)
	defer e.Storage().Close()

	proposals, err := e.ProposeOrder(ctx, *sku, date)
	if err != nil {
		log.Fatal().Err(err).Msg("propose failed")
	}
	printJSON(proposals)
}

func runConfirm(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("confirm", flag.ExitOnError)
	sku := fs.String("sku", "", "SKU code")
	dateStr := fs.String("date", "", "order date, YYYY-MM-DD")
	user := fs.String("user", "enginectl", "acting user recorded in the audit log")
	fs.Parse(args)
	date := mustParseDate(*dateStr)

	e := openEngine(ctx, cfg)
	defer e.Storage().Close()

	proposals, err := e.ProposeOrder(ctx, *sku, date)
	if err != nil {
		log.Fatal().Err(err).Msg("propose failed")
	}
	runID := auditlog.GenerateRunID(time.Now())
	confirmations, err := e.ConfirmOrders(ctx, proposals, *user, runID)
	if err != nil {
		log.Fatal().Err(err).Msg("confirm failed")
	}
	printJSON(confirmations)
}

func runReceive(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	doc := fs.String("doc", "", "receiving document id")
	dateStr := fs.String("date", "", "receipt date, YYYY-MM-DD")
	items := fs.String("items", "", "comma-separated SKU:qty pairs")
	user := fs.String("user", "enginectl", "acting user recorded in the audit log")
	fs.Parse(args)
	date := mustParseDate(*dateStr)

	e := openEngine(ctx, cfg)
	defer e.Storage().Close()

	in := workflow.ReceiptInput{DocumentID: *doc, ReceiptDate: date}
	for _, pair := range strings.Split(*items, ",") {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			log.Fatal().Str("pair", pair).Msg("items must be SKU:qty")
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil {
			log.Fatal().Str("pair", pair).Msg("quantity must be an integer")
		}
		in.Items = append(in.Items, workflow.ReceiptItem{SKU: parts[0], QtyReceived: qty})
	}

	runID := auditlog.GenerateRunID(time.Now())
	result, err := e.CloseReceipt(ctx, in, *user, runID)
	if err != nil {
		log.Fatal().Err(err).Msg("receive failed")
	}
	printJSON(result)
}

func runReconcile(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	dateStr := fs.String("date", "", "eod date, YYYY-MM-DD")
	counts := fs.String("counts", "", "comma-separated SKU:qty declared on-hand pairs")
	fs.Parse(args)
	date := mustParseDate(*dateStr)

	declared := map[string]int{}
	for _, pair := range strings.Split(*counts, ",") {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			log.Fatal().Str("pair", pair).Msg("counts must be SKU:qty")
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil {
			log.Fatal().Str("pair", pair).Msg("quantity must be an integer")
		}
		declared[parts[0]] = qty
	}

	e := openEngine(ctx, cfg)
	defer e.Storage().Close()

	results, err := e.ReconcileEOD(ctx, date, declared)
	if err != nil {
		log.Fatal().Err(err).Msg("reconcile failed")
	}
	printJSON(results)
}

func runDebugBundle(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("debug-bundle", flag.ExitOnError)
	out := fs.String("out", "", "output directory (default: timestamped)")
	gzipOut := fs.Bool("gzip", false, "also produce a .tar.gz archive")
	fs.Parse(args)

	e := openEngine(ctx, cfg)
	defer e.Storage().Close()

	dir, err := debugbundle.Build(ctx, e, debugbundle.Options{OutDir: *out, Gzip: *gzipOut})
	if err != nil {
		log.Fatal().Err(err).Msg("debug-bundle failed")
	}
	fmt.Println(dir)
}

func mustParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		log.Fatal().Str("date", s).Err(err).Msg("invalid date, expected YYYY-MM-DD")
	}
	return t
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
}
