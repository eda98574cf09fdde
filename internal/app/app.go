package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/organicjin/reminder-bot/internal/commands"
	"github.com/organicjin/reminder-bot/internal/config"
	"github.com/organicjin/reminder-bot/internal/dispatcher"
	"github.com/organicjin/reminder-bot/internal/metrics"
	"github.com/organicjin/reminder-bot/internal/registry"
	"github.com/organicjin/reminder-bot/internal/runtime/supervisor"
	"github.com/organicjin/reminder-bot/internal/schedule"
	"github.com/organicjin/reminder-bot/internal/scheduler"
	kit "github.com/organicjin/reminder-bot/internal/transport"
	telegram "github.com/organicjin/reminder-bot/internal/transport/telegram/adapter"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	adapter kit.Adapter
	store   registry.Store
	reg     *registry.Registry
	sink    metrics.Sink
	disp    *dispatcher.Dispatcher
	router  *commands.Router
	engine  *scheduler.Engine

	table schedule.Table
	mode  string

	metricsSrv *http.Server

	updates chan kit.Update
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	table, err := schedule.FromConfig(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	mode := cfg.EffectiveMode()

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		adapter: ad,
		table:   table,
		mode:    mode,
		sink:    metrics.NewNoopSink(),
		updates: make(chan kit.Update, 256),
	}

	if cfg.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.sink = metrics.NewPrometheusSink(promReg)

		addr := cfg.Metrics.Addr
		if addr == "" {
			addr = "127.0.0.1:9090"
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		a.metricsSrv = &http.Server{Addr: addr, Handler: mux}
	}

	// Registry only exists in multi mode; single mode has one static
	// recipient and never persists anything.
	if mode == config.ModeMulti {
		store, err := registry.Open(cfg.Registry, log.With(logx.String("comp", "registry")))
		if err != nil {
			return nil, err
		}
		a.store = store
		a.reg = registry.New(store, log.With(logx.String("comp", "registry")))
	}

	a.disp = dispatcher.New(ad, dispatcher.Config{}, log.With(logx.String("comp", "dispatcher")), a.sink)
	a.router = commands.NewRouter(ad, a.reg, table, mode, cfg.RecipientID,
		log.With(logx.String("comp", "commands")))
	a.engine = scheduler.New(table, a.fireJob, log.With(logx.String("comp", "scheduler")), a.sink)

	return a, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if err := config.Validate(cfg); err != nil {
			return err
		}
		if _, err := schedule.FromConfig(cfg.Schedule); err != nil {
			return err
		}
		return nil
	})

	if a.reg != nil {
		a.reg.Load(a.sup.Context())
		a.sink.Subscribers(a.reg.Len())
	}

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	// Scheduler starts only after the adapter is up so the first firing
	// always has a live send path.
	a.engine.Start(a.sup)

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.router.DispatchLoop(c, a.updates)
	})

	if a.metricsSrv != nil {
		a.sup.Go("metrics.http", func(c context.Context) error {
			errCh := make(chan error, 1)
			go func() { errCh <- a.metricsSrv.ListenAndServe() }()
			select {
			case <-c.Done():
				shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = a.metricsSrv.Shutdown(shutCtx)
				return nil
			case err := <-errCh:
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			}
		})
		a.log.Info("metrics endpoint enabled", logx.String("addr", a.metricsSrv.Addr))
	}

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyReload(newCfg)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started",
		logx.String("mode", a.mode),
		logx.Int("jobs", len(a.table.Jobs)),
		logx.String("tz", a.table.Location.String()))
	return nil
}

// applyReload takes effect for what can change live (logging); everything
// that is wired at construction time only warns.
func (a *App) applyReload(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if cfg.EffectiveMode() != a.mode {
		a.log.Warn("mode changed; restart required for changes to take effect")
	}
	if newTable, err := schedule.FromConfig(cfg.Schedule); err == nil {
		if newTable.Summary() != a.table.Summary() || newTable.Location.String() != a.table.Location.String() {
			a.log.Warn("schedule changed; restart required for changes to take effect")
		}
	}

	a.log.Info("config reloaded")
}

// fireJob is the scheduler's delivery callback. Fan-out depends on the
// deployment mode and the job's own fanout setting.
func (a *App) fireJob(ctx context.Context, job schedule.Job) error {
	cfg := a.cfgm.Get()

	if a.mode == config.ModeSingle || job.Fanout == schedule.FanoutSingle {
		recipient := cfg.RecipientID
		if !a.disp.Unicast(ctx, job.Message, recipient) {
			a.log.Warn("no recipient configured; reminder dropped", logx.String("job", job.ID))
		}
		return nil
	}

	recipients := a.reg.Snapshot()
	a.sink.Subscribers(len(recipients))
	sent, failed := a.disp.Broadcast(ctx, job.Message, recipients)
	if failed > 0 {
		a.log.Warn("broadcast finished with failures",
			logx.String("job", job.ID), logx.Int("sent", sent), logx.Int("failed", failed))
	}
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel the run context first so scheduler loops and the command
	// dispatcher start unwinding immediately.
	a.sup.Cancel()

	// Run a shutdown step with an upper bound so one component can't
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("registry", 1*time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
