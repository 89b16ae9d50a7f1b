package overview

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// Registry tracks open views per session so they can be released when the session ends.
type Registry struct {
	source Source
	lines  []models.LineCode
	logger *zap.Logger

	mu    sync.Mutex
	views map[string]map[*View]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(source Source, lines []models.LineCode, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		source: source,
		lines:  lines,
		logger: logger,
		views:  make(map[string]map[*View]struct{}),
	}
}

// Open creates a view owned by sessionID. The returned release func closes the view and must be
// called when the viewer goes away.
func (r *Registry) Open(sessionID string) (*View, func()) {
	view := NewView(r.source, r.lines, r.logger)

	r.mu.Lock()
	if r.views[sessionID] == nil {
		r.views[sessionID] = make(map[*View]struct{})
	}
	r.views[sessionID][view] = struct{}{}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if set := r.views[sessionID]; set != nil {
			delete(set, view)
			if len(set) == 0 {
				delete(r.views, sessionID)
			}
		}
		r.mu.Unlock()
		view.Close()
	}
	return view, release
}

// CloseSession closes every view owned by sessionID.
func (r *Registry) CloseSession(sessionID string) {
	r.mu.Lock()
	set := r.views[sessionID]
	delete(r.views, sessionID)
	r.mu.Unlock()

	for view := range set {
		view.Close()
	}
	if len(set) > 0 {
		r.logger.Info("closed overview views for ended session", zap.Int("views", len(set)))
	}
}

// Len returns the number of views currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, set := range r.views {
		n += len(set)
	}
	return n
}
