package service

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// fakeClock advances only when slept on.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// pagedSource serves audit events in pages. An event only becomes visible
// once the clock has passed its delay, modelling audit log delivery lag.
type pagedSource struct {
	clock    *fakeClock
	start    time.Time
	pageSize int
	events   []delayedEvent
	err      error

	mu    sync.Mutex
	calls int
}

type delayedEvent struct {
	event domain.AuditEvent
	after time.Duration
}

func newPagedSource(clock *fakeClock, pageSize int, events ...delayedEvent) *pagedSource {
	return &pagedSource{clock: clock, start: clock.Now(), pageSize: pageSize, events: events}
}

func (s *pagedSource) SessionStarts(_ context.Context, token string) ([]domain.AuditEvent, string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, "", s.err
	}

	elapsed := s.clock.Now().Sub(s.start)
	var visible []domain.AuditEvent
	for _, e := range s.events {
		if e.after <= elapsed {
			visible = append(visible, e.event)
		}
	}

	offset := 0
	if token != "" {
		offset = int(token[0] - '0')
	}
	end := min(offset+s.pageSize, len(visible))
	if offset >= end {
		return nil, "", nil
	}
	next := ""
	if end < len(visible) {
		next = string(rune('0' + end))
	}
	return visible[offset:end], next, nil
}

func (s *pagedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// memRegistry is an in-memory evidence registry: one trail per name, and
// attestations recorded per trail.
type memRegistry struct {
	mu           sync.Mutex
	trails       map[string]domain.TrailTemplate
	begins       int
	attestations map[string][]domain.Evidence
	attachErr    error
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		trails:       map[string]domain.TrailTemplate{},
		attestations: map[string][]domain.Evidence{},
	}
}

func (r *memRegistry) EnsureTrail(_ context.Context, name string, tmpl domain.TrailTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trails[name]; ok {
		return nil
	}
	r.trails[name] = tmpl
	r.begins++
	return nil
}

func (r *memRegistry) Attach(_ context.Context, trail string, ev domain.Evidence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attachErr != nil {
		return r.attachErr
	}
	if _, ok := r.trails[trail]; !ok {
		return port.ErrTrailNotFound
	}
	for _, f := range ev.Files {
		if _, err := os.Stat(f); err != nil {
			return err
		}
	}
	r.attestations[trail] = append(r.attestations[trail], ev)
	return nil
}

func (r *memRegistry) TrailCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trails)
}

func (r *memRegistry) Evidence(trail string) []domain.Evidence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Evidence(nil), r.attestations[trail]...)
}

// EvidenceNames returns the distinct evidence names attached to trail, sorted.
func (r *memRegistry) EvidenceNames(trail string) []string {
	seen := map[string]bool{}
	var names []string
	for _, ev := range r.Evidence(trail) {
		if !seen[ev.Name] {
			seen[ev.Name] = true
			names = append(names, ev.Name)
		}
	}
	sort.Strings(names)
	return names
}

// fileFetcher writes a fixed transcript into the scratch directory.
type fileFetcher struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	contents string
}

func (f *fileFetcher) Fetch(_ context.Context, _, key, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	p := dir + "/transcript.log"
	if err := os.WriteFile(p, []byte(f.contents+key), 0o600); err != nil {
		return "", err
	}
	return p, nil
}

type staticTasks struct {
	group string
	err   error
}

func (t staticTasks) TaskGroup(context.Context, string, string) (string, error) {
	return t.group, t.err
}

type memRecorder struct {
	mu      sync.Mutex
	entries []domain.InvocationLog
}

func (r *memRecorder) RecordInvocation(_ context.Context, entry domain.InvocationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}
