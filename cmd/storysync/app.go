package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"storysync/internal/config"
	"storysync/internal/logging"
	"storysync/internal/reconcile"
	"storysync/internal/security"
	"storysync/internal/storage"
	"storysync/internal/story"
	"storysync/internal/tools"
	"storysync/internal/tracker"
)

// app is everything one command invocation needs. It is opened per
// invocation so each command sees the state other processes wrote; only the
// story loader, whose cache checks file mtimes, may be carried over.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	ws      *security.Workspace
	parser  *story.Parser
	loader  *story.Loader
	tracker *tracker.Tracker
	engine  *reconcile.Engine
	metrics *reconcile.Metrics
	events  *storage.SQLiteStore
	closers []func() error
}

func (o *rootOptions) resolveRoot(cfg config.Config) (string, error) {
	root := strings.TrimSpace(o.workspace)
	if root == "" {
		root = strings.TrimSpace(cfg.WorkspaceRoot)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve cwd: %w", err)
		}
		root = wd
	}
	return root, nil
}

func (o *rootOptions) open() (*app, error) {
	cfg, err := config.LoadFor(o.configPath, strings.TrimSpace(o.workspace))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Log.Level
	if strings.TrimSpace(o.logLevel) != "" {
		level = o.logLevel
	}
	logger, closeLog, err := logging.Open(cfg.Log.File, level, "storysync")
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	root, err := o.resolveRoot(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ws, err = security.NewWorkspace(root)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init workspace: %w", err)
	}
	a.parser = story.NewParser(cfg.Story.ParserOptions())
	if o.loader != nil && o.loader.Root() == a.ws.Root() {
		a.loader = o.loader
	} else {
		a.loader, err = story.NewLoader(a.ws, story.LoaderOptions{
			Dirs:       cfg.Story.Dirs,
			CoreConfig: cfg.Story.CoreConfig,
			Parser:     a.parser,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init story loader: %w", err)
		}
	}

	stateStore, err := a.openStateStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.tracker = tracker.Open(stateStore, a.ws.Root(), tracker.Options{Logger: logger.WithPrefix("tracker")})

	a.metrics = reconcile.NewMetrics()
	a.engine = reconcile.New(a.tracker, a.engineOptions(cfg.Sync.DryRun))
	return a, nil
}

func (a *app) engineOptions(dryRun bool) reconcile.Options {
	opts := reconcile.Options{
		Enabled:  a.cfg.Sync.Enabled,
		DryRun:   dryRun,
		Floor:    a.cfg.Sync.SimilarityFloor,
		Radius:   a.cfg.Sync.SearchRadius,
		Parser:   a.parser,
		Resolver: a.loader,
		Metrics:  a.metrics,
		Logger:   a.logger.WithPrefix("reconcile"),
	}
	if a.events != nil {
		opts.Sink = a.events
	}
	return opts
}

// withDryRun switches the engine to previews when dryRun is set.
func (a *app) withDryRun(dryRun bool) {
	if dryRun && !a.cfg.Sync.DryRun {
		a.engine = reconcile.New(a.tracker, a.engineOptions(true))
	}
}

// registry exposes the engine as assistant tools.
func (a *app) registry() *tools.Registry {
	return tools.NewRegistry(
		tools.NewTodoReadTool(a.tracker),
		tools.NewTodoWriteTool(a.engine),
		tools.NewStoryLoadTool(a.loader, a.engine),
		tools.NewStoryStatusTool(a.tracker),
	)
}

func (a *app) openStateStore() (tracker.StateStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := storage.NewSQLiteStore(a.cfg.DatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open state database: %w", err)
		}
		a.events = db
		a.closers = append(a.closers, db.Close)
		migrated, err := storage.MigrateStateFile(a.cfg.StatePath(), a.ws.Root(), db)
		if err != nil {
			a.logger.Warn("state file migration failed", "path", a.cfg.StatePath(), "err", err)
		} else if migrated {
			a.logger.Info("migrated state file into sqlite", "path", a.cfg.StatePath())
		}
		return storage.ForProject(db, a.ws.Root()), nil
	default:
		fs, err := tracker.NewFileStore(a.cfg.StatePath())
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return fs, nil
	}
}

// flushMetrics writes the metrics textfile when one is configured.
func (a *app) flushMetrics() {
	if a.metrics == nil || a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("write metrics textfile failed", "path", a.cfg.Metrics.Textfile, "err", err)
	}
}

func (a *app) listEvents(limit int) ([]storage.SyncEvent, error) {
	if a.events == nil {
		return nil, errors.New("sync events need the sqlite backend (storage.backend = \"sqlite\")")
	}
	return a.events.ListSyncEvents(a.ws.Root(), limit)
}

func (a *app) Close() {
	a.flushMetrics()
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}
