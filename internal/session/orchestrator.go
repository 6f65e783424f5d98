package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dioinnovo/voicelead/internal/dialogue"
	"github.com/dioinnovo/voicelead/internal/lead"
	"github.com/dioinnovo/voicelead/internal/observability/metrics"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

var orchestratorTracer = otel.Tracer("voicelead.internal.session.orchestrator")

// Orchestrator owns the turn loop for every session: it loads the
// checkpoint, runs the dialogue machine, persists the result, and publishes
// the lead once the conversation qualifies. Turns for the same session are
// serialized; different sessions run concurrently.
type Orchestrator struct {
	machine *dialogue.Machine
	store   Store
	leads   lead.Repository
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLeadRepository sets where qualified leads are published.
func WithLeadRepository(r lead.Repository) OrchestratorOption {
	return func(o *Orchestrator) { o.leads = r }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics sets the conversation metrics sink.
func WithMetrics(m *metrics.ConversationMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator builds the orchestrator around a dialogue machine and a
// checkpoint store.
func NewOrchestrator(machine *dialogue.Machine, store Store, opts ...OrchestratorOption) *Orchestrator {
	if machine == nil {
		panic("session: dialogue machine cannot be nil")
	}
	if store == nil {
		panic("session: store cannot be nil")
	}
	o := &Orchestrator{
		machine: machine,
		store:   store,
		locks:   make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}
	return o
}

// lockSession serializes turns for one session without blocking others.
// The returned func releases the lock and drops the entry once no other
// turn is waiting on it.
func (o *Orchestrator) lockSession(sessionID string) func() {
	o.mu.Lock()
	l, ok := o.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		o.locks[sessionID] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, sessionID)
		}
		o.mu.Unlock()
	}
}

// Start creates a session and runs the dialogue up to its first prompt.
// An empty sessionID gets a generated UUID. Starting an existing session
// returns its current state unchanged.
func (o *Orchestrator) Start(ctx context.Context, sessionID string) (*dialogue.State, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	unlock := o.lockSession(sessionID)
	defer unlock()

	ctx, span := orchestratorTracer.Start(ctx, "session.start")
	defer span.End()
	span.SetAttributes(attribute.String("voicelead.session_id", sessionID))

	if existing, err := o.store.Get(ctx, sessionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		return nil, err
	}

	state, err := o.machine.Run(dialogue.NewState(sessionID))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: start %s: %w", sessionID, err)
	}
	if err := o.store.Save(ctx, state); err != nil {
		span.RecordError(err)
		return nil, err
	}
	o.metrics.SessionStarted()
	o.logger.Info("session started", "session_id", sessionID, "phase", state.Phase)
	return state, nil
}

// ProcessTranscript runs one user turn through the dialogue machine. An
// unknown session is started implicitly so a transcript is never dropped.
func (o *Orchestrator) ProcessTranscript(ctx context.Context, sessionID, transcript string) (*dialogue.State, error) {
	if sessionID == "" {
		return nil, errors.New("session: session_id required")
	}
	unlock := o.lockSession(sessionID)
	defer unlock()

	ctx, span := orchestratorTracer.Start(ctx, "session.process_transcript")
	defer span.End()
	span.SetAttributes(attribute.String("voicelead.session_id", sessionID))

	began := time.Now()

	state, err := o.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		state, err = o.machine.Run(dialogue.NewState(sessionID))
		if err == nil {
			o.metrics.SessionStarted()
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	wasQualified := state.Phase.Index() >= dialogue.PhaseQualified.Index()

	next, err := o.machine.Resume(state, transcript)
	if err != nil {
		o.metrics.ObserveTurn(string(state.Phase), "error", time.Since(began).Seconds())
		span.RecordError(err)
		return nil, fmt.Errorf("session: turn %s: %w", sessionID, err)
	}
	span.SetAttributes(attribute.String("voicelead.phase", string(next.Phase)))

	if err := o.store.Save(ctx, next); err != nil {
		span.RecordError(err)
		return nil, err
	}
	o.metrics.ObserveTurn(string(next.Phase), "ok", time.Since(began).Seconds())
	for field, count := range next.Retries {
		for i := state.Retries[field]; i < count; i++ {
			o.metrics.ObserveRetry(field)
		}
	}

	if !wasQualified && next.Phase.Index() >= dialogue.PhaseQualified.Index() {
		o.publishLead(ctx, next)
	}
	if next.Phase.Terminal() {
		o.metrics.SessionEnded(time.Since(next.StartedAt).Seconds())
		o.logger.Info("session completed", "session_id", sessionID)
	}
	return next, nil
}

// GetState returns the checkpointed state for a session.
func (o *Orchestrator) GetState(ctx context.Context, sessionID string) (*dialogue.State, error) {
	return o.store.Get(ctx, sessionID)
}

// End abandons a session and discards its checkpoint.
func (o *Orchestrator) End(ctx context.Context, sessionID string) error {
	unlock := o.lockSession(sessionID)
	defer unlock()

	state, err := o.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := o.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	if !state.Phase.Terminal() {
		o.metrics.SessionEnded(time.Since(state.StartedAt).Seconds())
	}
	o.logger.Info("session ended", "session_id", sessionID, "phase", state.Phase)
	return nil
}

// publishLead records the captured contact once the dialogue qualifies.
// Degraded qualifications (missing or unconfirmed contact fields) are still
// published; the sales team follows up on the gaps.
func (o *Orchestrator) publishLead(ctx context.Context, state *dialogue.State) {
	degraded := !state.Qualified()
	o.metrics.ObserveQualified(degraded)
	if o.leads == nil {
		return
	}
	rec, err := o.leads.Create(ctx, state.SessionID, state.Lead)
	if err != nil {
		o.logger.Error("failed to publish lead", "error", err, "session_id", state.SessionID)
		return
	}
	o.logger.Info("lead qualified",
		"session_id", state.SessionID,
		"lead_id", rec.ID,
		"degraded", degraded,
	)
}
