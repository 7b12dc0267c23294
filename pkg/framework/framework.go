// SPDX-License-Identifier: BSD-3-Clause

// Package framework wires the pipeline singletons (InStreams/OutStreams,
// InLoader, InManagers, OutLoader, OutManagers, OutRegistry) into one
// supervised unit (spec §4's Framework supplementation). Framework itself
// is a BaseComponent: CREATED --init--> INITIALIZED --configure--> CONFIGURED,
// where the Auxiliary Configuration Check (pkg/configcheck) gates
// CONFIGURED and the configure action brings every wired singleton up in
// turn. Once CONFIGURED, Run starts one cooperative scheduler goroutine,
// supervised by an oversight tree with Transient restart, that ticks the
// pipeline in order every interval.
package framework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"

	"github.com/cordet/pus/pkg/apperr"
	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/configcheck"
	"github.com/cordet/pus/pkg/inloader"
	"github.com/cordet/pus/pkg/inmanager"
	"github.com/cordet/pus/pkg/log"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/outloader"
	"github.com/cordet/pus/pkg/outmanager"
	"github.com/cordet/pus/pkg/outregistry"
	"github.com/cordet/pus/pkg/state"
	"github.com/cordet/pus/pkg/stream"
)

// inStream and outStream are the narrow per-cycle collaborator contracts
// Framework drives; satisfied by *stream.InStream / *stream.OutStream.
type inStream interface {
	Name() string
	Init(ctx context.Context) outcome.Outcome
	Configure(ctx context.Context) outcome.Outcome
	Shutdown(ctx context.Context) outcome.Outcome
	Poll(ctx context.Context) outcome.Outcome
}

type outStream interface {
	Name() string
	Init(ctx context.Context) outcome.Outcome
	Configure(ctx context.Context) outcome.Outcome
	Shutdown(ctx context.Context) outcome.Outcome
	Execute(ctx context.Context) outcome.Outcome
}

// config holds every Framework construction option. Framework does not
// call OutLoader.Load itself — that is the producing side's job, reached
// through whatever the tick handler wires up — but it still owns every
// singleton's lifecycle, bringing each one up and tearing it back down.
type config struct {
	tickInterval time.Duration
	restartDelay time.Duration
	logger       *slog.Logger
	latch        *apperr.Latch
	checkCfg     configcheck.Config

	inStreams   []inStream
	outStreams  []outStream
	inLoader    *inloader.Loader
	inManagers  []*inmanager.Manager
	outLoader   *outloader.Loader
	outManagers []*outmanager.Manager
	outRegistry *outregistry.Registry

	onTick func(ctx context.Context)
}

func defaultConfig(name string) *config {
	return &config{
		tickInterval: 10 * time.Millisecond,
		restartDelay: 100 * time.Millisecond,
		logger:       log.GetGlobalLogger(),
		latch:        apperr.Global,
		onTick:       func(context.Context) {},
	}
}

// Option configures a Framework at construction.
type Option func(*config)

// WithTickInterval overrides the default 10ms scheduler period.
func WithTickInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithLogger overrides the default global logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAppErrLatch overrides the default apperr.Global latch.
func WithAppErrLatch(l *apperr.Latch) Option {
	return func(c *config) {
		if l != nil {
			c.latch = l
		}
	}
}

// WithConfigCheck supplies the tables the Auxiliary Configuration Check
// (spec §4.13) validates before Framework is allowed to reach CONFIGURED.
func WithConfigCheck(cfg configcheck.Config) Option {
	return func(c *config) { c.checkCfg = cfg }
}

// WithInStreams registers the InStream singletons polled every tick, in
// the order they are polled.
func WithInStreams(streams ...*stream.InStream) Option {
	return func(c *config) {
		for _, s := range streams {
			c.inStreams = append(c.inStreams, s)
		}
	}
}

// WithOutStreams registers the OutStream singletons drained every tick,
// in the order they are drained.
func WithOutStreams(streams ...*stream.OutStream) Option {
	return func(c *config) {
		for _, s := range streams {
			c.outStreams = append(c.outStreams, s)
		}
	}
}

// WithInLoader registers the InLoader singleton.
func WithInLoader(l *inloader.Loader) Option {
	return func(c *config) { c.inLoader = l }
}

// WithInManagers registers the InManager singletons ticked every cycle.
func WithInManagers(mgrs ...*inmanager.Manager) Option {
	return func(c *config) { c.inManagers = append(c.inManagers, mgrs...) }
}

// WithOutLoader registers the OutLoader singleton.
func WithOutLoader(l *outloader.Loader) Option {
	return func(c *config) { c.outLoader = l }
}

// WithOutManagers registers the OutManager singletons ticked every cycle.
func WithOutManagers(mgrs ...*outmanager.Manager) Option {
	return func(c *config) { c.outManagers = append(c.outManagers, mgrs...) }
}

// WithOutRegistry registers the OutRegistry singleton. OutRegistry carries
// no lifecycle of its own (spec §4.12); Framework only needs the
// reference to thread through CONFIGURED but drives nothing on it per
// tick.
func WithOutRegistry(r *outregistry.Registry) Option {
	return func(c *config) { c.outRegistry = r }
}

// WithTickHandler installs the hook Framework calls once per cycle, after
// every InManager has run and before any OutManager runs — the seam
// where a caller's command handlers turn accepted InCommands into
// OutComponents and load them via the OutLoader (spec §5's scheduling
// order: InStreams, InLoader, InManagers, [handlers], OutManagers,
// OutStreams).
func WithTickHandler(fn func(ctx context.Context)) Option {
	return func(c *config) {
		if fn != nil {
			c.onTick = fn
		}
	}
}

// Framework is the top-level supervised unit: one BaseComponent wrapping
// every pipeline singleton plus the cooperative scheduler that drives
// them.
type Framework struct {
	*component.Base
	config

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan error
	lastCheck  configcheck.Result
}

// New constructs a Framework named name. It starts CREATED; call Run to
// move it through INITIALIZED and CONFIGURED and start the scheduler.
func New(name string, opts ...Option) (*Framework, error) {
	cfg := defaultConfig(name)
	for _, opt := range opts {
		opt(cfg)
	}
	f := &Framework{config: *cfg}
	base, err := component.New(name, component.Actions{
		ConfigCheck:    f.configCheck,
		ConfigAction:   f.bringUp,
		ShutdownAction: f.teardown,
	})
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

// configCheck runs the Auxiliary Configuration Check (spec §4.13) over
// the tables supplied via WithConfigCheck.
func (f *Framework) configCheck(ctx context.Context) outcome.Outcome {
	f.lastCheck = configcheck.Check(f.checkCfg)
	if f.lastCheck.Failed {
		f.logger.ErrorContext(ctx, "auxiliary configuration check failed",
			"table", f.lastCheck.Table, "error", f.lastCheck.Err)
		return outcome.Fail(outcome.CodeInvalid)
	}
	return outcome.OK
}

// bringUp moves every wired singleton CREATED->INITIALIZED->CONFIGURED,
// in pipeline order. The first failure aborts the whole bring-up; callers
// see it as Framework's own Configure failing.
func (f *Framework) bringUp(ctx context.Context) outcome.Outcome {
	for _, s := range f.inStreams {
		if o := bringUpOne(ctx, s); !o.IsSuccess() {
			return o
		}
	}
	for _, s := range f.outStreams {
		if o := bringUpOne(ctx, s); !o.IsSuccess() {
			return o
		}
	}
	if f.inLoader != nil {
		if o := bringUpOne(ctx, f.inLoader); !o.IsSuccess() {
			return o
		}
	}
	for _, m := range f.inManagers {
		if o := bringUpOne(ctx, m); !o.IsSuccess() {
			return o
		}
	}
	if f.outLoader != nil {
		if o := bringUpOne(ctx, f.outLoader); !o.IsSuccess() {
			return o
		}
	}
	for _, m := range f.outManagers {
		if o := bringUpOne(ctx, m); !o.IsSuccess() {
			return o
		}
	}
	return outcome.OK
}

type bringUppable interface {
	Init(ctx context.Context) outcome.Outcome
	Configure(ctx context.Context) outcome.Outcome
}

func bringUpOne(ctx context.Context, c bringUppable) outcome.Outcome {
	if o := c.Init(ctx); !o.IsSuccess() {
		return o
	}
	return c.Configure(ctx)
}

// teardown shuts every wired singleton back down, in reverse pipeline
// order, releasing whatever they hold back to their factories.
func (f *Framework) teardown(ctx context.Context) outcome.Outcome {
	for _, m := range f.outManagers {
		m.Shutdown(ctx)
	}
	if f.outLoader != nil {
		f.outLoader.Shutdown(ctx)
	}
	for _, m := range f.inManagers {
		m.Shutdown(ctx)
	}
	if f.inLoader != nil {
		f.inLoader.Shutdown(ctx)
	}
	for _, s := range f.outStreams {
		s.Shutdown(ctx)
	}
	for _, s := range f.inStreams {
		s.Shutdown(ctx)
	}
	return outcome.OK
}

// LastCheck returns the result of the most recent Auxiliary Configuration
// Check, whether or not it passed.
func (f *Framework) LastCheck() configcheck.Result { return f.lastCheck }

// Run moves Framework through INITIALIZED and CONFIGURED (running the
// Auxiliary Configuration Check and bringing every singleton up) and, on
// success, starts the scheduler under an oversight-supervised goroutine.
// Run returns once the scheduler has started; it does not block for the
// lifetime of the run. On a configuration-check failure Framework stays
// INITIALIZED and Run returns a non-nil error.
func (f *Framework) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("framework %s panicked: %v", f.Name(), r)
		}
	}()

	if f.State() == state.ComponentCreated {
		if o := f.Init(ctx); !o.IsSuccess() {
			return fmt.Errorf("framework %s: init failed: %s", f.Name(), o.Code)
		}
	}
	if o := f.Configure(ctx); !o.IsSuccess() {
		if f.lastCheck.Failed {
			return fmt.Errorf("framework %s: configuration check failed on table %s: %w",
				f.Name(), f.lastCheck.Table, f.lastCheck.Err)
		}
		return fmt.Errorf("framework %s: configure failed: %s", f.Name(), o.Code)
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.done = make(chan error, 1)
	done := f.done
	f.mu.Unlock()

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(f.logger)),
	)
	if err := tree.Add(f.schedulerProcess(), oversight.Transient(), oversight.Timeout(f.restartDelay), "scheduler"); err != nil {
		cancel()
		return fmt.Errorf("framework %s: add scheduler to supervision tree: %w", f.Name(), err)
	}

	go func() {
		supervise := func(ctx context.Context, c chan error) { c <- tree.Start(ctx) }
		runErr := nursery.RunConcurrentlyWithContext(runCtx, supervise)
		done <- runErr
		close(done)
	}()

	f.logger.InfoContext(ctx, "framework scheduler started", "name", f.Name(), "tick", f.tickInterval)
	return nil
}

// schedulerProcess builds the oversight.ChildProcess that ticks the
// pipeline every f.tickInterval until its context is canceled.
func (f *Framework) schedulerProcess() oversight.ChildProcess {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(f.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				f.tick(ctx)
			}
		}
	}
}

// tick runs one pass of the scheduling order (spec §5): every InStream
// polls, InLoader drains and routes, every InManager steps its PCRL
// entries, the caller's tick handler runs, every OutManager steps its
// POCL entries, then every OutStream drains. No step here blocks on I/O:
// Poll/Execute on each component are themselves non-blocking, and Send
// failures on OutStream retain the packet for a later cycle instead of
// waiting.
func (f *Framework) tick(ctx context.Context) {
	for _, s := range f.inStreams {
		if o := s.Poll(ctx); o.IsFailure() {
			f.logger.WarnContext(ctx, "instream poll failed", "code", o.Code)
		}
	}
	if f.inLoader != nil {
		f.inLoader.Execute(ctx)
	}
	for _, m := range f.inManagers {
		m.Execute(ctx)
	}

	f.onTick(ctx)

	for _, m := range f.outManagers {
		m.Execute(ctx)
	}
	for _, s := range f.outStreams {
		s.Execute(ctx)
	}
}

// DryRunTick runs a single tick synchronously without starting the
// scheduler goroutine, for offline inspection (cmd/pusctl's "dry-run a
// scheduler tick"). Framework must already be CONFIGURED.
func (f *Framework) DryRunTick(ctx context.Context) error {
	if !f.IsConfigured() {
		return fmt.Errorf("framework %s: not configured", f.Name())
	}
	f.tick(ctx)
	return nil
}

// Shutdown stops the scheduler (if running) and then shuts every wired
// singleton down, releasing whatever it holds back to its factory.
func (f *Framework) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	cancel := f.cancel
	done := f.done
	f.cancel = nil
	f.done = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				f.logger.ErrorContext(ctx, "framework scheduler stopped with error", "error", err)
			}
		case <-ctx.Done():
		}
	}

	if o := f.Base.Shutdown(ctx); !o.IsSuccess() {
		return fmt.Errorf("framework %s: shutdown failed: %s", f.Name(), o.Code)
	}
	return nil
}
