package hookwire

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/go-drift/hookwire/pkg/config"
	"github.com/go-drift/hookwire/pkg/element"
	"github.com/go-drift/hookwire/pkg/errors"
	"github.com/go-drift/hookwire/pkg/host"
	"github.com/go-drift/hookwire/pkg/intercept"
	"github.com/go-drift/hookwire/pkg/metrics"
	"github.com/go-drift/hookwire/pkg/mount"
	"github.com/go-drift/hookwire/pkg/state"
)

// Runtime owns the element interceptor, the state registry and the mount
// tracker for one host.
type Runtime struct {
	mu        sync.Mutex
	cfg       *config.Config
	session   string
	logger    zerolog.Logger
	metrics   *metrics.Collector
	handler   errors.ErrorHandler
	previous  errors.ErrorHandler
	installed bool

	elements *element.Interceptor
	states   *state.Registry
	mounts   *mount.Tracker
}

// New creates a runtime. It is not installed until [Runtime.Install] is
// called.
func New(opts ...Option) (*Runtime, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{cfg: cfg, session: newSessionID()}

	if o.logger != nil {
		r.logger = o.logger.With().Str("session", r.session).Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
		r.logger = zerolog.New(output).With().Timestamp().Str("session", r.session).Logger().Level(cfg.LogLevel())
	}

	if o.registerer != nil || cfg.Metrics.Enabled {
		r.metrics = metrics.New(cfg.Metrics.Namespace)
		if err := r.metrics.Register(o.registerer); err != nil {
			return nil, &errors.HookError{
				Op:      "hookwire.New",
				Kind:    errors.KindInstall,
				Err:     fmt.Errorf("register metrics: %w", err),
				Session: r.session,
			}
		}
	}

	r.handler = o.handler
	if r.handler == nil {
		r.handler = &errors.LogHandler{Verbose: cfg.Errors.Verbose, Logger: &r.logger}
	}

	r.elements = element.New(r.metrics, r.session)
	r.states = state.NewRegistryWithEquality(r.metrics, o.equal)
	r.mounts = mount.New(cfg.ReplayMode(), r.metrics, r.session)
	return r, nil
}

// Install patches every host slot named by b and routes isolated matcher
// failures to the runtime's error handler. It fails if the runtime is already
// installed or if any binding is missing; in both cases nothing is patched.
func (r *Runtime) Install(b host.Bindings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.installed {
		return r.installError(errors.ErrAlreadyInstalled)
	}
	if missing := b.Missing(); len(missing) > 0 {
		return r.installError(fmt.Errorf("%w: %s", errors.ErrMissingBinding, strings.Join(missing, ", ")))
	}

	r.states.Install(b.UseState, b.UseRef, b.UseEffect)
	r.elements.Install(b.Factories...)
	r.mounts.Install(b.Render)

	r.previous = errors.Handler()
	errors.SetHandler(r.handler)
	r.installed = true

	r.logger.Debug().
		Int("factories", len(b.Factories)).
		Str("replay", r.mounts.ReplayMode().String()).
		Msg("hookwire installed")
	return nil
}

func (r *Runtime) installError(err error) error {
	return &errors.HookError{
		Op:      "hookwire.Install",
		Kind:    errors.KindInstall,
		Err:     err,
		Session: r.session,
	}
}

// Uninstall restores every patched slot and the previous error handler.
// Registered matchers, live state instances and the mount log are kept.
func (r *Runtime) Uninstall() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.installed {
		return
	}
	r.mounts.Uninstall()
	r.elements.Uninstall()
	r.states.Uninstall()
	errors.SetHandler(r.previous)
	r.previous = nil
	r.installed = false

	r.logger.Debug().Msg("hookwire uninstalled")
}

// Installed reports whether the runtime is installed.
func (r *Runtime) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installed
}

// Reset drops every matcher, state instance and mount record. Installed
// slots stay patched.
func (r *Runtime) Reset() {
	r.elements.Reset()
	r.states.Reset()
	r.mounts.Reset()
}

// Wrap returns target wrapped with the around-handler h.
func (r *Runtime) Wrap(target intercept.Func, h intercept.Handler) intercept.Func {
	return intercept.Wrap(target, h)
}

// SubscribeState adds m to the end of the state matcher chain and applies it
// to the live instances it matches.
func (r *Runtime) SubscribeState(m state.Matcher) (unsubscribe func()) {
	return r.states.Subscribe(m)
}

// SubscribeElementConstruction registers an element matcher.
func (r *Runtime) SubscribeElementConstruction(matches element.MatchFunc, transform element.TransformFunc) (unsubscribe func()) {
	return r.elements.Subscribe(matches, transform)
}

// SubscribeMount registers a mount matcher and replays the mount log to it.
func (r *Runtime) SubscribeMount(matches mount.MatchFunc, handle mount.HandleFunc, initializeOnce bool) (unsubscribe func()) {
	return r.mounts.Subscribe(matches, handle, initializeOnce)
}

// States returns the state registry.
func (r *Runtime) States() *state.Registry { return r.states }

// Mounts returns the mount tracker.
func (r *Runtime) Mounts() *mount.Tracker { return r.mounts }

// Elements returns the element interceptor.
func (r *Runtime) Elements() *element.Interceptor { return r.elements }

// Config returns the configuration the runtime was built with.
func (r *Runtime) Config() *config.Config { return r.cfg }

// Metrics returns the collector, or nil when metrics are disabled.
func (r *Runtime) Metrics() *metrics.Collector { return r.metrics }

// Session returns the runtime's unique session id.
func (r *Runtime) Session() string { return r.session }

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *zerolog.Logger { return &r.logger }
