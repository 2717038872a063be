package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
	"emissions-platform/internal/repository"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// EntityLister supplies the names a calculator session may select
type EntityLister interface {
	ListEntityNames(ctx context.Context) ([]string, error)
}

// CalculatorService owns the live calculator sessions. Each session holds
// its own calculator; nothing is shared between sessions and nothing is
// persisted.
type CalculatorService struct {
	entities EntityLister
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*calculatorSession
}

type calculatorSession struct {
	mu         sync.Mutex
	id         string
	calc       *engine.Calculator
	createdAt  time.Time
	lastActive time.Time
}

// SessionView is a snapshot of one calculator session
type SessionView struct {
	ID         string            `json:"id"`
	Inputs     map[string]string `json:"inputs"`
	Outputs    engine.Outputs    `json:"outputs"`
	Recomputes int               `json:"recomputes"`
	CreatedAt  time.Time         `json:"created_at"`
	LastActive time.Time         `json:"last_active"`
}

// NewCalculatorService creates a calculator service whose idle sessions expire after ttl
func NewCalculatorService(entities EntityLister, ttl time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CalculatorService {
	return &CalculatorService{
		entities: entities,
		logger:   logger,
		metrics:  metricsCollector,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*calculatorSession),
	}
}

// Create starts a session with every cell unset
func (s *CalculatorService) Create(ctx context.Context) SessionView {
	now := s.now()
	sess := &calculatorSession{
		id:         uuid.NewString(),
		calc:       engine.NewCalculator(),
		createdAt:  now,
		lastActive: now,
	}
	view := sess.view()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()

	s.metrics.CalculatorSessionsActive.Set(float64(active))
	s.logger.Info(ctx, "[CALC_SESSION_CREATE] Calculator session created", logging.Fields{
		"session_id":      sess.id,
		"active_sessions": active,
	})

	return view
}

// Get returns a snapshot of a session
func (s *CalculatorService) Get(ctx context.Context, id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = s.now()
	return sess.view(), nil
}

// SetInput stores raw text into one of the four tracked inputs
func (s *CalculatorService) SetInput(ctx context.Context, id string, input engine.Input, raw string) (SessionView, error) {
	if err := trackedInput(input); err != nil {
		return SessionView{}, err
	}
	return s.mutate(ctx, id, input, func(c *engine.Calculator) { c.Set(input, raw) })
}

// ClearInput unsets one of the four tracked inputs
func (s *CalculatorService) ClearInput(ctx context.Context, id string, input engine.Input) (SessionView, error) {
	if err := trackedInput(input); err != nil {
		return SessionView{}, err
	}
	return s.mutate(ctx, id, input, func(c *engine.Calculator) { c.Clear(input) })
}

// SelectEntity sets the session's reference entity. An empty name clears it;
// any other name must be one of the ingested entity names.
func (s *CalculatorService) SelectEntity(ctx context.Context, id, name string) (SessionView, error) {
	if name != "" {
		names, err := s.entities.ListEntityNames(ctx)
		if err != nil {
			return SessionView{}, fmt.Errorf("failed to list entity names: %w", err)
		}
		if !slices.Contains(names, name) {
			return SessionView{}, &models.ValidationError{
				Field:   string(engine.InputSelectedEntity),
				Value:   name,
				Message: fmt.Sprintf("unknown entity %q", name),
			}
		}
	}

	return s.mutate(ctx, id, engine.InputSelectedEntity, func(c *engine.Calculator) {
		if name == "" {
			c.Clear(engine.InputSelectedEntity)
			return
		}
		c.SelectEntity(name)
	})
}

// Delete ends a session
func (s *CalculatorService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return &repository.NotFoundError{Resource: "calculator_session", ID: id}
	}

	s.metrics.CalculatorSessionsActive.Set(float64(active))
	s.logger.Info(ctx, "[CALC_SESSION_DELETE] Calculator session deleted", logging.Fields{
		"session_id":      id,
		"active_sessions": active,
	})
	return nil
}

// Active returns the number of live sessions
func (s *CalculatorService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Expire drops sessions idle for longer than the TTL and returns how many were removed
func (s *CalculatorService) Expire(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.CalculatorSessionsActive.Set(float64(active))
		s.logger.Info(ctx, "[CALC_SESSION_EXPIRE] Expired idle calculator sessions", logging.Fields{
			"removed":         removed,
			"active_sessions": active,
		})
	}
	return removed
}

// RunJanitor expires idle sessions every interval until ctx is cancelled
func (s *CalculatorService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Expire(ctx)
		}
	}
}

func (s *CalculatorService) lookup(id string) (*calculatorSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &repository.NotFoundError{Resource: "calculator_session", ID: id}
	}
	return sess, nil
}

func (s *CalculatorService) mutate(ctx context.Context, id string, input engine.Input, apply func(*engine.Calculator)) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.calc.Recomputes()
	apply(sess.calc)
	sess.lastActive = s.now()

	if n := sess.calc.Recomputes() - before; n > 0 {
		s.metrics.CalculatorRecomputes.Add(float64(n))
	}

	view := sess.view()
	s.logger.Debug(ctx, "[CALC_INPUT] Calculator input changed", logging.Fields{
		"session_id": id,
		"input":      string(input),
		"outputs":    view.Outputs.Describe(),
	})
	return view, nil
}

// view must be called with sess.mu held or before the session is shared
func (sess *calculatorSession) view() SessionView {
	inputs := make(map[string]string)
	for k, v := range sess.calc.Inputs() {
		inputs[string(k)] = v
	}
	return SessionView{
		ID:         sess.id,
		Inputs:     inputs,
		Outputs:    sess.calc.Outputs(),
		Recomputes: sess.calc.Recomputes(),
		CreatedAt:  sess.createdAt,
		LastActive: sess.lastActive,
	}
}

func trackedInput(input engine.Input) error {
	if engine.Tracks(input) {
		return nil
	}
	return &models.ValidationError{
		Field:   "input",
		Value:   string(input),
		Message: fmt.Sprintf("%q is not a calculator input", input),
	}
}
