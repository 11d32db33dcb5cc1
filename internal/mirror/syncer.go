// Package mirror runs sync jobs: it gates them, prepares the remote schema,
// copies every entity in dependency order and records the result.
package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/database/connect"
	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/gate"
	"github.com/carlosatFroom/learning-system/internal/logger"
	"github.com/carlosatFroom/learning-system/internal/replicate"
	"github.com/carlosatFroom/learning-system/internal/schema"
	"github.com/carlosatFroom/learning-system/internal/state"
)

const defaultProbeTimeout = 5 * time.Second

// Options configures a Syncer.
type Options struct {
	// Local is the source store. Required.
	Local *database.Config

	// Remote is the mirror target; nil means no remote is configured.
	Remote *database.Config

	// Schema holds the local entity definitions. Required.
	Schema *schema.Schema

	// Prefix is prepended to every remote table name.
	Prefix string

	// State persists the last successful sync time. Required.
	State state.Store

	Cooldown     time.Duration
	ProbeTimeout time.Duration

	// Parallelism caps concurrent table copies within one dependency level.
	Parallelism int

	Logger *logger.Logger
}

// RunOptions are the per-run overrides.
type RunOptions struct {
	// Force bypasses the cooldown, never the reachability check.
	Force bool

	// Reset drops every remote table before recreating and refilling them.
	Reset bool
}

// Option customises a Syncer.
type Option func(*Syncer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// WithOpener replaces connect.Open.
func WithOpener(open connect.Opener) Option {
	return func(s *Syncer) { s.open = open }
}

// Syncer mirrors the local store into the remote one. It holds no open
// connections between calls and is safe for concurrent use; runs against the
// same remote target never overlap.
type Syncer struct {
	opts   Options
	remote *schema.Schema
	open   connect.Opener
	now    func() time.Time
	log    *logger.Logger
}

// New validates opts and derives the remote schema.
func New(opts Options, options ...Option) (*Syncer, error) {
	if opts.Local == nil {
		return nil, errs.New(errs.ErrKindConfig, "local database is not configured")
	}
	if opts.Schema == nil {
		return nil, errs.New(errs.ErrKindConfig, "schema is required")
	}
	if opts.State == nil {
		return nil, errs.New(errs.ErrKindConfig, "state store is required")
	}
	if opts.Remote != nil && opts.Remote.DSN == "" {
		opts.Remote = nil
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = gate.DefaultCooldown
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.Global()
	}

	remote, err := opts.Schema.Mirror(opts.Prefix)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		opts:   opts,
		remote: remote,
		open:   connect.Open,
		now:    time.Now,
		log:    opts.Logger.Component("mirror"),
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// RemoteSchema returns the prefixed schema written to the remote store.
func (s *Syncer) RemoteSchema() *schema.Schema {
	return s.remote
}

// RemoteConfigured reports whether a remote target is set.
func (s *Syncer) RemoteConfigured() bool {
	return s.opts.Remote != nil
}

// Run performs one sync. Gate denials and busy targets are reported as
// skipped; any failure after the gate is reported as error and leaves the
// stored sync time untouched.
func (s *Syncer) Run(ctx context.Context, ro RunOptions) Report {
	rep := Report{RunID: uuid.NewString(), StartedAt: s.now()}
	log := s.log.With().
		Str("run_id", rep.RunID).
		Bool("force", ro.Force).
		Bool("reset", ro.Reset).
		Logger()

	finish := func(status Status, msg string) Report {
		rep.Status = status
		rep.Message = msg
		rep.FinishedAt = s.now()
		return rep
	}

	if s.opts.Remote == nil {
		d := gate.Evaluate(gate.Input{RemoteConfigured: false})
		log.Info("sync skipped: " + d.Reason)
		return finish(StatusSkipped, d.Reason)
	}

	release, ok := targets.tryAcquire(s.opts.Remote.Identity())
	if !ok {
		log.Info("sync skipped: " + MessageBusy)
		return finish(StatusSkipped, MessageBusy)
	}
	defer release()

	var remote database.DB
	defer func() {
		if remote != nil {
			remote.Close()
		}
	}()

	d := gate.Evaluate(gate.Input{
		RemoteConfigured: true,
		Probe: func() error {
			db, err := s.probe(ctx)
			remote = db
			return err
		},
		LastSync: s.opts.State.Load(ctx).LastSync,
		Force:    ro.Force,
		Now:      rep.StartedAt,
		Cooldown: s.opts.Cooldown,
	})
	if !d.Allowed {
		log.Info("sync skipped: " + d.Reason)
		return finish(StatusSkipped, d.Reason)
	}
	log.InfoWith("sync started", map[string]interface{}{"reason": d.Reason, "target": s.opts.Remote.Driver})

	details, err := s.execute(ctx, remote, ro, log)
	if err != nil {
		log.ErrorWith("sync failed", err, nil)
		return finish(StatusError, err.Error())
	}

	if err := s.opts.State.Save(ctx, s.now()); err != nil {
		log.ErrorWith("failed to record sync time", err, map[string]interface{}{"state": s.opts.State.Describe()})
		return finish(StatusError, err.Error())
	}

	rep.Details = details
	out := finish(StatusSuccess, "")
	totals := out.Totals()
	log.InfoWith("sync finished", map[string]interface{}{
		"inserted": totals.Inserted,
		"updated":  totals.Updated,
		"changed":  totals.Changed,
		"total":    totals.Total,
		"duration": out.FinishedAt.Sub(out.StartedAt).String(),
	})
	return out
}

// probe opens the remote under the probe timeout. The connection is kept
// for the run that follows.
func (s *Syncer) probe(ctx context.Context) (database.DB, error) {
	pctx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
	defer cancel()

	db, err := s.open(pctx, s.opts.Remote)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (s *Syncer) execute(ctx context.Context, remote database.DB, ro RunOptions, log *logger.Logger) (map[string]replicate.Result, error) {
	local, err := s.open(ctx, s.opts.Local)
	if err != nil {
		return nil, errs.Wrap(errs.KindOf(err), "failed to open local store", err)
	}
	defer local.Close()

	if ro.Reset {
		if err := s.dropTables(ctx, remote, log); err != nil {
			return nil, err
		}
	}

	if err := s.createTables(ctx, remote, log); err != nil {
		return nil, err
	}

	return s.copyAll(ctx, local, remote, log)
}

// dropTables removes the mirrored remote tables that exist, children first.
// Other tables in the remote database are left alone.
func (s *Syncer) dropTables(ctx context.Context, remote database.DB, log *logger.Logger) error {
	tables, err := remote.ListTables(ctx)
	if err != nil {
		return errs.Wrap(errs.KindOf(err), "failed to list remote tables", err)
	}
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}

	dropped := 0
	for _, e := range s.remote.Reversed() {
		if !present[e.Table] {
			continue
		}
		if _, err := remote.Exec(ctx, schema.DropTableSQL(e, remote.Dialect())); err != nil {
			return errs.Wrap(errs.KindOf(err), "failed to drop "+e.Table, err)
		}
		dropped++
	}
	log.WarnWith("remote tables dropped", nil, map[string]interface{}{"tables": dropped})
	return nil
}

// createTables creates missing remote tables parents first. Indexes are only
// created together with their table.
func (s *Syncer) createTables(ctx context.Context, remote database.DB, log *logger.Logger) error {
	d := remote.Dialect()
	for _, e := range s.remote.Entities() {
		exists, err := remote.TableExists(ctx, e.Table)
		if err != nil {
			return errs.Wrap(errs.KindOf(err), "failed to check "+e.Table, err)
		}
		if exists {
			continue
		}

		if _, err := remote.Exec(ctx, schema.CreateTableSQL(e, d)); err != nil {
			return errs.Wrap(errs.KindOf(err), "failed to create "+e.Table, err)
		}
		for _, stmt := range schema.CreateIndexSQL(e, d) {
			if _, err := remote.Exec(ctx, stmt); err != nil {
				return errs.Wrap(errs.KindOf(err), "failed to index "+e.Table, err)
			}
		}
		log.Debug("created " + e.Table)
	}
	return nil
}

// copyAll replicates level by level. Entities of one level run concurrently
// up to Parallelism; a level starts only once the previous one succeeded.
func (s *Syncer) copyAll(ctx context.Context, local, remote database.DB, log *logger.Logger) (map[string]replicate.Result, error) {
	var mu sync.Mutex
	details := make(map[string]replicate.Result, s.remote.Len())

	for _, level := range s.remote.Levels() {
		locals := make([]schema.Entity, len(level))
		for i, re := range level {
			le, ok := s.opts.Schema.Entity(re.Name)
			if !ok {
				return nil, errs.Newf(errs.ErrKindConfig, "entity %s missing from local schema", re.Name)
			}
			locals[i] = le
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Parallelism)

		for i, re := range level {
			le := locals[i]
			g.Go(func() error {
				res, err := s.copyEntity(gctx, local, remote, le, re, log)
				if err != nil {
					return err
				}
				mu.Lock()
				details[re.Name] = res
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return details, nil
}

// copyEntity runs one entity inside its own remote transaction.
func (s *Syncer) copyEntity(ctx context.Context, local, remote database.DB, le, re schema.Entity, log *logger.Logger) (res replicate.Result, err error) {
	start := time.Now()

	tx, err := remote.Begin(ctx)
	if err != nil {
		return res, errs.Wrap(errs.KindOf(err), "replicating "+re.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	res, err = replicate.Table(ctx, replicate.Job{
		Local:  local,
		Remote: tx,
		From:   replicate.Side{Dialect: local.Dialect(), Entity: le},
		To:     replicate.Side{Dialect: remote.Dialect(), Entity: re},
	})
	if err != nil {
		return res, errs.Wrap(errs.KindOf(err), "replicating "+re.Name, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return res, errs.Wrap(errs.KindOf(err), "replicating "+re.Name, err)
	}

	log.With().Str("entity", re.Name).Logger().InfoWith("entity replicated", map[string]interface{}{
		"synced":   res.Inserted,
		"updated":  res.Updated,
		"changed":  res.Changed,
		"total":    res.Total,
		"duration": time.Since(start).String(),
	})
	return res, nil
}

// Status reports whether an unforced run would be allowed now.
func (s *Syncer) Status(ctx context.Context) StatusReport {
	st := s.opts.State.Load(ctx)

	rep := StatusReport{RemoteConfigured: s.opts.Remote != nil}
	if !st.Never() {
		t := st.LastSync.UTC()
		rep.LastSync = &t
	}

	d := gate.Evaluate(gate.Input{
		RemoteConfigured: rep.RemoteConfigured,
		Probe: func() error {
			db, err := s.probe(ctx)
			if err != nil {
				return err
			}
			db.Close()
			return nil
		},
		LastSync: st.LastSync,
		Now:      s.now(),
		Cooldown: s.opts.Cooldown,
	})

	rep.CanSync, rep.Message = d.Allowed, d.Reason
	if d.Allowed && targets.busy(s.opts.Remote.Identity()) {
		rep.CanSync, rep.Message = false, MessageBusy
	}
	return rep
}

func (r StatusReport) String() string {
	last := "never"
	if r.LastSync != nil {
		last = r.LastSync.Format(time.RFC3339)
	}
	return fmt.Sprintf("last sync: %s, remote configured: %t, can sync: %t (%s)", last, r.RemoteConfigured, r.CanSync, r.Message)
}
