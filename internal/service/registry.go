package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"docqa/internal/embedding/provider"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionsActive reports the number of live document sessions.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "docqa",
		Subsystem: "service",
		Name:      "sessions_active",
		Help:      "Number of document sessions currently held in memory",
	},
)

// Registry holds independent document sessions keyed by id.
type Registry struct {
	factory provider.Factory
	opts    Options
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions get their embedder from factory.
func NewRegistry(factory provider.Factory, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		factory:  factory,
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

// Create loads text into a new session and returns its id. The session is
// only registered once the document has been indexed.
func (r *Registry) Create(ctx context.Context, name, text string) (string, DocumentSummary, error) {
	e, err := r.factory()
	if err != nil {
		return "", DocumentSummary{}, err
	}
	id := uuid.NewString()
	opts := r.opts
	opts.Logger = r.logger.With(zap.String("session", id))
	s := NewSession(e, opts)

	summary, err := s.LoadText(ctx, name, text, nil)
	if err != nil {
		_ = s.Close()
		return "", DocumentSummary{}, err
	}

	r.mu.Lock()
	r.sessions[id] = s
	SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	r.logger.Info("session created", zap.String("session", id), zap.String("name", name))
	return id, summary, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes and closes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		SessionsActive.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.logger.Info("session deleted", zap.String("session", id))
	return s.Close()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes every session.
func (r *Registry) Close() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	SessionsActive.Set(0)
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
