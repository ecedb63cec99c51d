// Package scheduler runs the engine's background maintenance jobs: nightly
// backup rotation and, when a declared-on-hand source is supplied, an
// end-of-day reconciliation sweep. Neither job is triggered by an inbound request, so
// something has to be the batch caller; this package is it.
//
// Grounded on the teacher's internal/workers/snapshot_worker.go (a
// cron-driven background job wrapping a service call with start/stop
// lifecycle and structured logging), with NATS subscription replaced by
// robfig/cron/v3 scheduling since there is no message bus in this engine.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pinggolf/replenish-engine/internal/workflow"
)

// Config controls the two jobs' schedules and the backup destination.
type Config struct {
	BackupDir      string
	BackupSchedule string // cron expression, default "0 2 * * *" (02:00 daily)
	ReconcileCron  string // cron expression, default "30 23 * * *" (23:30 daily)
	Logger         *zerolog.Logger
}

// Scheduler owns a cron runner bound to one workflow Engine.
type Scheduler struct {
	engine *workflow.Engine
	cron   *cron.Cron
	cfg    Config
	log    zerolog.Logger
}

// New builds a Scheduler with its jobs registered but not yet started.
// declaredOnHand supplies each in-assortment SKU's physical count for the
// EOD sweep; a nil source disables the reconciliation job, since the
// scheduler has no count of its own to reconcile against.
func New(engine *workflow.Engine, cfg Config, declaredOnHand func(ctx context.Context) (map[string]int, error)) (*Scheduler, error) {
	if cfg.BackupSchedule == "" {
		cfg.BackupSchedule = "0 2 * * *"
	}
	if cfg.ReconcileCron == "" {
		cfg.ReconcileCron = "30 23 * * *"
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = "backups"
	}
	lg := log.Logger
	if cfg.Logger != nil {
		lg = *cfg.Logger
	}

	s := &Scheduler{
		engine: engine,
		cron:   cron.New(),
		cfg:    cfg,
		log:    lg,
	}

	if _, err := s.cron.AddFunc(cfg.BackupSchedule, s.runBackup); err != nil {
		return nil, err
	}

	if declaredOnHand != nil {
		if _, err := s.cron.AddFunc(cfg.ReconcileCron, func() { s.runReconcile(declaredOnHand) }); err != nil {
			return nil, err
		}
	} else {
		s.log.Info().Msg("EOD reconciliation sweep disabled: no declared-on-hand source configured")
	}

	return s, nil
}

// Start begins running scheduled jobs in the background. Stop must be
// called to release the cron goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels future runs and waits for any in-flight job to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dest, err := s.engine.Storage().Backup(ctx, s.cfg.BackupDir, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled backup failed")
		return
	}
	s.log.Info().Str("backup", dest).Msg("scheduled backup completed")
}

func (s *Scheduler) runReconcile(declaredOnHand func(ctx context.Context) (map[string]int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	skus, err := s.engine.SKUs.ListInAssortment(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("EOD sweep: failed to list in-assortment skus")
		return
	}

	declared, err := declaredOnHand(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("EOD sweep: declared-on-hand source failed")
		return
	}

	scoped := make(map[string]int, len(skus))
	for _, sku := range skus {
		if qty, ok := declared[sku.Code]; ok {
			scoped[sku.Code] = qty
		}
	}
	if len(scoped) == 0 {
		s.log.Warn().Msg("EOD sweep: no declared counts matched an in-assortment sku, nothing to reconcile")
		return
	}

	results, err := s.engine.ReconcileEOD(ctx, time.Now().Truncate(24*time.Hour), scoped)
	if err != nil {
		s.log.Error().Err(err).Msg("EOD sweep failed")
		return
	}
	s.log.Info().Int("skus", len(results)).Msg("EOD reconciliation sweep completed")
}
