package scene

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Handle is an opaque reference to an engine resource.
type Handle uint64

// Engine is the rendering capability the synchronizer drives. Build creates
// a resource for an object, Attach and Detach add it to or remove it from the
// scene graph, and Release destroys it.
type Engine interface {
	Build(obj Object) (Handle, error)
	Attach(h Handle)
	Detach(h Handle)
	Release(h Handle)
}

// Rejection records a descriptor that could not be displayed.
type Rejection struct {
	ID   string
	Kind string
	Err  error
}

// Report summarizes one reconcile pass.
type Report struct {
	Added    []string
	Skipped  []string
	Rejected []Rejection
	Removed  int
}

// Notes renders rejected descriptors as short messages for the caller's log.
func (r Report) Notes() []string {
	notes := make([]string, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		id := rej.ID
		if id == "" {
			id = "<no id>"
		}
		notes = append(notes, fmt.Sprintf("skipped %s (%s): %v", id, rej.Kind, rej.Err))
	}
	return notes
}

type entry struct {
	object Object
	handle Handle
}

// Synchronizer owns the id -> resource mapping. The engine's scene graph is
// always the image of this mapping.
type Synchronizer struct {
	mu      sync.Mutex
	engine  Engine
	logger  *zap.Logger
	entries map[string]entry
}

func NewSynchronizer(engine Engine, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		engine:  engine,
		logger:  logger.Named("scene"),
		entries: make(map[string]entry),
	}
}

// ReconcileIncremental adds every descriptor whose id is not yet displayed.
// Present ids are skipped, so replaying the same snapshot is a no-op.
// Unknown or malformed descriptors are logged and reported; the rest of the
// batch is still processed.
func (s *Synchronizer) ReconcileIncremental(descs []Descriptor) Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(descs)
}

// ReconcileFullReplace tears the whole scene down and builds it again from
// descs. Use it when the response carries the complete current state.
func (s *Synchronizer) ReconcileFullReplace(descs []Descriptor) Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.releaseAllLocked()
	report := s.addLocked(descs)
	report.Removed = removed
	return report
}

// Teardown releases every handle and empties the mapping.
func (s *Synchronizer) Teardown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseAllLocked()
}

// Remove drops a single object. It reports whether the id was present.
func (s *Synchronizer) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	s.releaseLocked(id, e)
	return true
}

func (s *Synchronizer) Get(id string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e.object, ok
}

func (s *Synchronizer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// IDs returns the displayed ids in sorted order.
func (s *Synchronizer) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Synchronizer) addLocked(descs []Descriptor) Report {
	report := Report{}
	for _, desc := range descs {
		if _, ok := s.entries[desc.ID]; ok && desc.ID != "" {
			report.Skipped = append(report.Skipped, desc.ID)
			continue
		}
		obj, err := Build(desc)
		if err != nil {
			s.reject(&report, desc, err)
			continue
		}
		if _, ok := s.entries[obj.ID]; ok {
			report.Skipped = append(report.Skipped, obj.ID)
			continue
		}
		handle, err := s.engine.Build(obj)
		if err != nil {
			s.reject(&report, desc, fmt.Errorf("engine build: %w", err))
			continue
		}
		s.engine.Attach(handle)
		s.entries[obj.ID] = entry{object: obj, handle: handle}
		report.Added = append(report.Added, obj.ID)
	}
	if len(report.Added) > 0 || len(report.Rejected) > 0 {
		s.logger.Debug("reconciled",
			zap.Int("added", len(report.Added)),
			zap.Int("skipped", len(report.Skipped)),
			zap.Int("rejected", len(report.Rejected)),
			zap.Int("live", len(s.entries)))
	}
	return report
}

func (s *Synchronizer) reject(report *Report, desc Descriptor, err error) {
	s.logger.Warn("descriptor skipped",
		zap.String("id", desc.ID),
		zap.String("kind", desc.Kind),
		zap.Error(err))
	report.Rejected = append(report.Rejected, Rejection{ID: desc.ID, Kind: desc.Kind, Err: err})
}

func (s *Synchronizer) releaseAllLocked() int {
	n := len(s.entries)
	for id, e := range s.entries {
		s.releaseLocked(id, e)
	}
	return n
}

func (s *Synchronizer) releaseLocked(id string, e entry) {
	s.engine.Detach(e.handle)
	s.engine.Release(e.handle)
	delete(s.entries, id)
}
