// Package workspace keeps per-user measurement workspaces in memory.
//
// A Workspace pairs one DrawingSession with one Viewport. Workspaces are
// addressed by UUID, expire after an idle period and are bounded in number.
// Expired workspaces are removed lazily on lookup and in bulk by Sweep, which
// the Janitor runs on an interval.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gomeasure/internal/measure"
	"gomeasure/internal/types"
)

// Config bounds a Store.
type Config struct {
	// IdleTTL is how long a workspace survives without being touched.
	IdleTTL time.Duration
	// Max is the largest number of live workspaces.
	Max int
}

// DefaultConfig returns the default store bounds.
func DefaultConfig() Config {
	return Config{
		IdleTTL: 30 * time.Minute,
		Max:     10000,
	}
}

// Workspace is one user's measurement state.
type Workspace struct {
	ID        string
	CreatedAt time.Time
	Session   *measure.DrawingSession
	Viewport  *measure.Viewport

	// lastSeen is guarded by the owning Store's mutex.
	lastSeen time.Time
}

// Snapshot is the serializable view of a Workspace.
type Snapshot struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"created_at"`
	Drawing   measure.SessionSnapshot  `json:"drawing"`
	Viewport  measure.ViewportSnapshot `json:"viewport"`
}

// Snapshot copies the workspace state.
func (w *Workspace) Snapshot() Snapshot {
	return Snapshot{
		ID:        w.ID,
		CreatedAt: w.CreatedAt,
		Drawing:   w.Session.Snapshot(),
		Viewport:  w.Viewport.Snapshot(),
	}
}

// Store is a bounded, idle-expiring set of workspaces. It is safe for
// concurrent use.
type Store struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	cfg        Config
	clock      types.Clock
	logger     *slog.Logger

	// onArea, when set, is attached to every new session as an area
	// listener. Used to feed area metrics.
	onArea measure.AreaListener
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(c types.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithAreaListener registers fn on every workspace session the store creates.
func WithAreaListener(fn measure.AreaListener) Option {
	return func(s *Store) { s.onArea = fn }
}

// NewStore creates an empty Store. Zero config fields take their defaults.
func NewStore(cfg Config, logger *slog.Logger, opts ...Option) *Store {
	def := DefaultConfig()
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.Max <= 0 {
		cfg.Max = def.Max
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		workspaces: make(map[string]*Workspace),
		cfg:        cfg,
		clock:      types.RealClock{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a new workspace. When the store is full, expired
// workspaces are swept first; if it is still full the call fails with
// ErrCodeLimitWorkspaces.
func (s *Store) Create(viewportOpts ...measure.ViewportOption) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if len(s.workspaces) >= s.cfg.Max {
		s.sweepLocked(now)
		if len(s.workspaces) >= s.cfg.Max {
			return nil, types.NewAppErrorWithDetails(
				types.ErrCodeLimitWorkspaces,
				"too many active workspaces",
				nil,
				map[string]any{"max": s.cfg.Max},
			)
		}
	}

	session := measure.NewDrawingSession()
	if s.onArea != nil {
		session.OnAreaChange(s.onArea)
	}
	w := &Workspace{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Session:   session,
		Viewport:  measure.NewViewport(viewportOpts...),
		lastSeen:  now,
	}
	s.workspaces[w.ID] = w
	return w, nil
}

// Get returns the workspace and refreshes its idle timer. A workspace that has
// been idle longer than IdleTTL is removed and reported as not found.
func (s *Store) Get(id string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	w, ok := s.workspaces[id]
	if ok && s.expired(w, now) {
		delete(s.workspaces, id)
		ok = false
	}
	if !ok {
		return nil, notFound(id)
	}
	w.lastSeen = now
	return w, nil
}

// Delete removes the workspace.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workspaces[id]
	if !ok || s.expired(w, s.clock.Now()) {
		delete(s.workspaces, id)
		return notFound(id)
	}
	delete(s.workspaces, id)
	return nil
}

// Len returns the number of stored workspaces, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Sweep removes every workspace idle at now and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, w := range s.workspaces {
		if s.expired(w, now) {
			delete(s.workspaces, id)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(w *Workspace, now time.Time) bool {
	return now.Sub(w.lastSeen) > s.cfg.IdleTTL
}

func notFound(id string) error {
	return types.NewAppErrorWithDetails(
		types.ErrCodeNotFoundWorkspace,
		"workspace not found",
		nil,
		map[string]any{"id": id},
	)
}

// Janitor periodically sweeps a Store.
type Janitor struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// NewJanitor creates a Janitor that sweeps every interval.
func NewJanitor(store *Store, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{store: store, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled. It always returns nil so it can share an
// errgroup with the HTTP server without tearing it down.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := j.store.Sweep(j.store.clock.Now()); n > 0 {
				j.logger.InfoContext(ctx, "swept idle workspaces",
					"removed", n,
					"remaining", j.store.Len(),
				)
			}
		}
	}
}
