package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticegate/pqcbridge"
	"github.com/latticegate/pqcbridge/engine"
)

const defaultPollInterval = 30 * time.Second

// Run status labels reported in schedule snapshots.
const (
	RunStatusRunning        = "running"
	RunStatusCompleted      = "completed"
	RunStatusFailed         = "failed"
	RunStatusSkippedOverlap = "skipped_overlap"
)

// Entry is one configured recurring scan.
type Entry struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
	Cron    string `yaml:"cron"`
	Enabled bool   `yaml:"enabled"`
}

// Status is a point-in-time snapshot of one schedule's state.
type Status struct {
	Name       string     `json:"name"`
	Enabled    bool       `json:"enabled"`
	NextRunAt  time.Time  `json:"next_run_at"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Runner executes one tool call. The bridge dispatcher satisfies it.
type Runner interface {
	Dispatch(ctx context.Context, tool string, args map[string]any) (any, error)
}

// Config configures the background scan scheduler.
type Config struct {
	Runner       Runner
	Entries      []Entry
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Scheduler periodically executes due scan schedules. Schedules are fixed at
// construction; run state is tracked in memory and exposed via Snapshot.
type Scheduler struct {
	runner       Runner
	entries      []Entry
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu     sync.Mutex
	states map[string]*entryState
	active map[string]struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

type entryState struct {
	nextRunAt  time.Time
	lastRunAt  *time.Time
	lastStatus string
	lastError  string
}

// NewScheduler validates the configured entries and creates a scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Runner == nil {
		return nil, errors.New("scan scheduler runner is nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	now := cfg.Now().UTC()
	states := make(map[string]*entryState, len(cfg.Entries))
	entries := make([]Entry, 0, len(cfg.Entries))
	for _, entry := range cfg.Entries {
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			return nil, errors.New("schedule name is required")
		}
		if _, exists := states[entry.Name]; exists {
			return nil, fmt.Errorf("duplicate schedule name %q", entry.Name)
		}
		if strings.TrimSpace(entry.Path) == "" {
			return nil, fmt.Errorf("schedule %q: scan path is required", entry.Name)
		}
		if entry.Format != "" && entry.Format != engine.FormatSC13 && entry.Format != engine.FormatOSCAL {
			return nil, fmt.Errorf("schedule %q: unknown report format %q", entry.Name, entry.Format)
		}

		nextRunAt, err := NextRunUTC(entry.Cron, now)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", entry.Name, err)
		}

		states[entry.Name] = &entryState{nextRunAt: nextRunAt}
		entries = append(entries, entry)
	}

	return &Scheduler{
		runner:       cfg.Runner,
		entries:      entries,
		pollInterval: cfg.PollInterval,
		now:          cfg.Now,
		logger:       cfg.Logger,
		states:       states,
		active:       map[string]struct{}{},
	}, nil
}

// Start starts background polling. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() error {
	if s == nil {
		return errors.New("scan scheduler is nil")
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.RunOnce(loopCtx)
			}
		}
	}()

	return nil
}

// Stop stops background polling. In-flight runs observe the cancellation and
// wind down on their own; Stop waits only for the poll loop.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes a single scheduler pass, launching every due schedule.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.now().UTC()
	for _, entry := range s.dueEntries(now) {
		s.processDue(ctx, entry, now)
	}
}

// Snapshot reports the current state of every schedule in configuration
// order.
func (s *Scheduler) Snapshot() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.entries))
	for _, entry := range s.entries {
		state := s.states[entry.Name]
		out = append(out, Status{
			Name:       entry.Name,
			Enabled:    entry.Enabled,
			NextRunAt:  state.nextRunAt,
			LastRunAt:  state.lastRunAt,
			LastStatus: state.lastStatus,
			LastError:  state.lastError,
		})
	}
	return out
}

func (s *Scheduler) dueEntries(now time.Time) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Entry
	for _, entry := range s.entries {
		if !entry.Enabled {
			continue
		}
		if !s.states[entry.Name].nextRunAt.After(now) {
			due = append(due, entry)
		}
	}
	return due
}

func (s *Scheduler) processDue(ctx context.Context, entry Entry, now time.Time) {
	nextRunAt, err := NextRunUTC(entry.Cron, now)
	if err != nil {
		s.setState(entry.Name, func(state *entryState) {
			state.lastStatus = RunStatusFailed
			state.lastError = err.Error()
		})
		return
	}

	if s.isActive(entry.Name) {
		s.setState(entry.Name, func(state *entryState) {
			state.nextRunAt = nextRunAt
			state.lastStatus = RunStatusSkippedOverlap
			state.lastError = "skipped because prior scheduled scan is still active"
		})
		return
	}

	s.setState(entry.Name, func(state *entryState) {
		state.nextRunAt = nextRunAt
		state.lastStatus = RunStatusRunning
		state.lastError = ""
	})
	s.markActive(entry.Name)
	go s.runScan(ctx, entry)
}

func (s *Scheduler) runScan(ctx context.Context, entry Entry) {
	defer s.unmarkActive(entry.Name)

	runCtx := pqcbridge.WithSource(ctx, pqcbridge.SourceSchedule)
	runCtx = pqcbridge.WithTraceID(runCtx, uuid.NewString())

	args := map[string]any{"path": entry.Path}
	if entry.Format != "" {
		args["format"] = entry.Format
	}

	_, err := s.runner.Dispatch(runCtx, pqcbridge.ToolScan, args)
	finish := s.now().UTC()
	if err != nil {
		s.logger.Error("scheduled scan failed", "schedule", entry.Name, "path", entry.Path, "error", err)
		s.setState(entry.Name, func(state *entryState) {
			state.lastRunAt = &finish
			state.lastStatus = RunStatusFailed
			state.lastError = err.Error()
		})
		return
	}

	s.setState(entry.Name, func(state *entryState) {
		state.lastRunAt = &finish
		state.lastStatus = RunStatusCompleted
		state.lastError = ""
	})
}

func (s *Scheduler) setState(name string, update func(*entryState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[name]; ok {
		update(state)
	}
}

func (s *Scheduler) isActive(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[name]
	return ok
}

func (s *Scheduler) markActive(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[name] = struct{}{}
}

func (s *Scheduler) unmarkActive(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, name)
}
