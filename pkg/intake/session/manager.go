package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/pkg/intake/cache"
	"ppm-intake-be/pkg/intake/extract"
	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/record"
	"ppm-intake-be/pkg/intake/respond"
	"ppm-intake-be/pkg/intake/transcript"
)

const Greeting = "Hi! I need to collect information about two universities and courses you're interested in. " +
	"Let's start with the name of your first university."

const module = "SessionManager"

// Cache is the part of the semantic cache the manager drives
type Cache interface {
	Lookup(ctx context.Context, sessionID, text string) (cache.Exchange, bool)
	Record(ctx context.Context, ex cache.Exchange) bool
	Search(ctx context.Context, sessionID, query string, limit int) ([]cache.Match, error)
	History(ctx context.Context, sessionID string, page cache.Page) ([]cache.Exchange, error)
	Count(ctx context.Context, sessionID string) (int, error)
	Clear(ctx context.Context, sessionID string) error
	ClearAll(ctx context.Context) error
	Stats(sessionID string) cache.Stats
	Forget(sessionID string)
}

type Timeouts struct {
	Extract time.Duration
	Reply   time.Duration
	Save    time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Extract <= 0 {
		t.Extract = 30 * time.Second
	}
	if t.Reply <= 0 {
		t.Reply = 60 * time.Second
	}
	if t.Save <= 0 {
		t.Save = 10 * time.Second
	}
	return t
}

// Options wires the manager. Schema defaults to field.DefaultSet, Notifier to a no-op.
type Options struct {
	Schema          field.Set
	Store           Store
	Extractor       extract.Extractor
	Responder       respond.Responder
	Cache           Cache
	Records         record.Store
	Notifier        record.Notifier
	Logger          logger.ILogger
	Timeouts        Timeouts
	HistoryCapacity int
	Now             func() time.Time
}

type Created struct {
	SessionID string
	CreatedAt time.Time
	Greeting  string
}

type TurnResult struct {
	SessionID  string
	Reply      string
	Fields     field.Values
	IsComplete bool
	IsCached   bool
	NextField  field.ID // empty once complete
}

type FieldsView struct {
	SessionID  string
	Values     field.Values
	IsComplete bool
}

type Completion struct {
	SessionID      string
	IsComplete     bool
	CollectedCount int
	TotalRequired  int
	NextField      field.ID
}

type Overview struct {
	Completion
	State             Status
	Values            field.Values
	ConversationCount int
	CacheStats        cache.Stats
}

// Manager owns the active sessions and runs the per-message pipeline
type Manager struct {
	schema    field.Set
	store     Store
	extractor extract.Extractor
	responder respond.Responder
	cache     Cache
	records   record.Store
	notifier  record.Notifier
	logger    logger.ILogger
	tracer    trace.Tracer
	timeouts  Timeouts
	capacity  int
	now       func() time.Time

	group singleflight.Group
}

func NewManager(opts Options) *Manager {
	if opts.Schema.Total() == 0 {
		opts.Schema = field.DefaultSet()
	}
	if opts.Notifier == nil {
		opts.Notifier = record.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = transcript.DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Manager{
		schema:    opts.Schema,
		store:     opts.Store,
		extractor: opts.Extractor,
		responder: opts.Responder,
		cache:     opts.Cache,
		records:   opts.Records,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		tracer:    otel.Tracer("ppm-intake-be/session"),
		timeouts:  opts.Timeouts.withDefaults(),
		capacity:  opts.HistoryCapacity,
		now:       opts.Now,
	}
}

func (m *Manager) Schema() field.Set { return m.schema }

func (m *Manager) CreateSession(ctx context.Context) (Created, error) {
	st := newState(uuid.New().String(), m.now(), m.capacity)
	st.transcript.Push(transcript.Turn{Role: transcript.RoleAssistant, Text: Greeting})
	m.store.Save(st)

	m.logger.Info(module, "session created", map[string]interface{}{"session_id": st.id})
	return Created{SessionID: st.id, CreatedAt: st.createdAt, Greeting: Greeting}, nil
}

// SendMessage runs one turn: extract, cache lookup, reply, then commit.
// Nothing on the state changes until every external call of the turn has returned.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (TurnResult, error) {
	ctx, span := m.tracer.Start(ctx, "intake.SendMessage", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	var result TurnResult
	err := m.withState(ctx, sessionID, func(st *State) error {
		r, err := m.runTurn(ctx, st, text)
		result = r
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TurnResult{}, err
	}

	span.SetAttributes(
		attribute.Bool("intake.cached", result.IsCached),
		attribute.Bool("intake.complete", result.IsComplete),
	)
	return result, nil
}

func (m *Manager) runTurn(ctx context.Context, st *State, text string) (TurnResult, error) {
	values := st.values
	history := st.transcript.Recent(0)
	wasComplete := m.schema.IsComplete(values)

	decision := extract.Decision{Skipped: true}
	if !wasComplete {
		exCtx, cancel := context.WithTimeout(ctx, m.timeouts.Extract)
		decision = extract.Propose(exCtx, m.extractor, m.schema, values, text)
		cancel()
		if decision.Err != nil {
			m.logger.Warn(module, "extraction failed, treating as no update", map[string]interface{}{
				"session_id": st.id,
				"error":      decision.Err.Error(),
			})
		}
	}

	// responder sees the values as they will be after this turn commits
	tentative := values
	if decision.Apply {
		next, _ := m.schema.NextMissing(values)
		if decision.Update.Field != next.ID {
			return TurnResult{}, invariant(ErrOutOfOrderUpdate)
		}
		applied, err := values.Apply(decision.Update)
		if err != nil {
			return TurnResult{}, invariant(err)
		}
		tentative = applied
	}

	var (
		reply    string
		cached   bool
		degraded bool
	)
	// the turn that completes the session always gets a fresh summary
	completing := !wasComplete && m.schema.IsComplete(tentative)
	if hit, ok := m.cacheLookup(ctx, st.id, text, completing); ok {
		reply = hit.AssistantText
		cached = true
	} else {
		replyCtx, cancel := context.WithTimeout(ctx, m.timeouts.Reply)
		r := m.responder.Respond(replyCtx, respond.Request{
			Message: decision.ReplyInput(text),
			Schema:  m.schema,
			Values:  tentative,
			History: history,
		})
		cancel()
		reply, degraded = r.Text, r.Degraded
	}

	if !degraded {
		m.cache.Record(ctx, cache.Exchange{
			SessionID:     st.id,
			UserText:      text,
			AssistantText: reply,
			Cached:        cached,
			Timestamp:     m.now(),
		})
	}

	if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}

	if decision.Apply {
		if err := st.apply(m.schema, decision.Update); err != nil {
			return TurnResult{}, err
		}
		m.logger.Info(module, "field collected", map[string]interface{}{
			"session_id": st.id,
			"field":      string(decision.Update.Field),
			"confidence": decision.Result.Confidence,
		})
	}
	st.transcript.Push(transcript.Turn{Role: transcript.RoleUser, Text: text})
	st.transcript.Push(transcript.Turn{Role: transcript.RoleAssistant, Text: reply})

	complete := m.schema.IsComplete(st.values)
	if complete && !wasComplete {
		st.completedAt = m.now()
		m.persist(ctx, st)
		m.notify(ctx, st)
	}

	next, _ := m.schema.NextMissing(st.values)
	return TurnResult{
		SessionID:  st.id,
		Reply:      reply,
		Fields:     st.values,
		IsComplete: complete,
		IsCached:   cached,
		NextField:  next.ID,
	}, nil
}

func (m *Manager) Fields(ctx context.Context, sessionID string) (FieldsView, error) {
	var view FieldsView
	err := m.withState(ctx, sessionID, func(st *State) error {
		view = FieldsView{
			SessionID:  st.id,
			Values:     st.values,
			IsComplete: m.schema.IsComplete(st.values),
		}
		return nil
	})
	return view, err
}

func (m *Manager) CompletionStatus(ctx context.Context, sessionID string) (Completion, error) {
	var c Completion
	err := m.withState(ctx, sessionID, func(st *State) error {
		c = m.completion(st)
		return nil
	})
	return c, err
}

// History returns one page of the indexed exchanges of the session in write order
func (m *Manager) History(ctx context.Context, sessionID string, page cache.Page) ([]cache.Exchange, error) {
	if err := m.withState(ctx, sessionID, func(*State) error { return nil }); err != nil {
		return nil, err
	}
	return m.cache.History(ctx, sessionID, page)
}

func (m *Manager) SearchSimilar(ctx context.Context, sessionID, query string, limit int) ([]cache.Match, error) {
	if err := m.withState(ctx, sessionID, func(*State) error { return nil }); err != nil {
		return nil, err
	}
	return m.cache.Search(ctx, sessionID, query, limit)
}

// Status aggregates fields, completion and the number of indexed exchanges
func (m *Manager) Status(ctx context.Context, sessionID string) (Overview, error) {
	var s Overview
	err := m.withState(ctx, sessionID, func(st *State) error {
		s = Overview{Completion: m.completion(st), State: st.status(m.schema), Values: st.values}
		return nil
	})
	if err != nil {
		return Overview{}, err
	}

	s.CacheStats = m.cache.Stats(sessionID)

	count, err := m.cache.Count(ctx, sessionID)
	if err != nil {
		m.logger.Warn(module, "conversation count unavailable for status", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return s, nil
	}
	s.ConversationCount = count
	return s, nil
}

// CloseSession flushes a pending completion save and evicts the session.
// Closing an unknown id is a no-op.
func (m *Manager) CloseSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return invariant(ErrEmptySessionID)
	}
	st, ok := m.store.Get(sessionID)
	if !ok {
		return nil
	}
	m.close(ctx, st)
	return nil
}

// CloseAll closes every active session. Safe to call repeatedly.
func (m *Manager) CloseAll(ctx context.Context) error {
	states := m.store.All()
	for _, st := range states {
		m.close(ctx, st)
	}
	m.logger.Info(module, "all sessions closed", map[string]interface{}{"count": len(states)})
	return nil
}

// ClearConversations drops the indexed exchanges of one session
func (m *Manager) ClearConversations(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return invariant(ErrEmptySessionID)
	}
	if err := m.cache.Clear(ctx, sessionID); err != nil {
		return err
	}
	m.cache.Forget(sessionID)
	m.logger.Info(module, "conversations cleared", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (m *Manager) ClearAllConversations(ctx context.Context) error {
	if err := m.cache.ClearAll(ctx); err != nil {
		return err
	}
	m.logger.Info(module, "all conversations cleared", nil)
	return nil
}

func (m *Manager) close(ctx context.Context, st *State) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}

	if m.schema.IsComplete(st.values) && !st.saved {
		m.persist(ctx, st)
	}
	st.closed = true
	m.cache.Forget(st.id)
	m.store.Delete(st.id)

	m.logger.Info(module, "session closed", map[string]interface{}{
		"session_id": st.id,
		"complete":   m.schema.IsComplete(st.values),
	})
}

// withState resolves the session and runs fn under its lock.
// A state closed while we waited for the lock is resolved again.
func (m *Manager) withState(ctx context.Context, sessionID string, fn func(st *State) error) error {
	if strings.TrimSpace(sessionID) == "" {
		return invariant(ErrEmptySessionID)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := m.resolve(ctx, sessionID)
		st.mu.Lock()
		if st.closed {
			st.mu.Unlock()
			continue
		}
		err := fn(st)
		st.mu.Unlock()
		return err
	}
}

// resolve returns the active state, reloading a persisted record or starting fresh.
// Concurrent resolutions of one id share a single load. A state built after a
// failed load is not kept, so the next access retries the record store.
func (m *Manager) resolve(ctx context.Context, sessionID string) *State {
	if st, ok := m.store.Get(sessionID); ok {
		return st
	}

	// the id may alias a transport buffer that is reused after the request
	sessionID = strings.Clone(sessionID)

	v, _, _ := m.group.Do(sessionID, func() (interface{}, error) {
		if st, ok := m.store.Get(sessionID); ok {
			return st, nil
		}
		st, ok := m.load(ctx, sessionID)
		if ok {
			m.store.Save(st)
		}
		return st, nil
	})
	return v.(*State)
}

// load reports false when the record store could not be read
func (m *Manager) load(ctx context.Context, sessionID string) (*State, bool) {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeouts.Save)
	defer cancel()

	rec, found, err := m.records.Load(loadCtx, sessionID)
	if err != nil {
		m.logger.Warn(module, "persisted record unavailable, serving an unsaved fresh session", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return newState(sessionID, m.now(), m.capacity), false
	}
	if found {
		m.logger.Info(module, "session restored from record", map[string]interface{}{"session_id": sessionID})
		return restoredState(rec, m.capacity), true
	}
	return newState(sessionID, m.now(), m.capacity), true
}

func (m *Manager) cacheLookup(ctx context.Context, sessionID, text string, skip bool) (cache.Exchange, bool) {
	if skip {
		return cache.Exchange{}, false
	}
	return m.cache.Lookup(ctx, sessionID, text)
}

// persist writes the completion record. Failure leaves saved=false so close retries.
func (m *Manager) persist(ctx context.Context, st *State) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeouts.Save)
	defer cancel()

	if err := m.records.Save(saveCtx, st.record()); err != nil {
		m.logger.Error(module, "failed to persist completion record", map[string]interface{}{
			"session_id": st.id,
			"error":      err.Error(),
		})
		return
	}
	st.saved = true
	m.logger.Info(module, "completion record saved", map[string]interface{}{"session_id": st.id})
}

func (m *Manager) notify(ctx context.Context, st *State) {
	if err := m.notifier.NotifyCompleted(context.WithoutCancel(ctx), st.record()); err != nil {
		m.logger.Warn(module, "completion notification failed", map[string]interface{}{
			"session_id": st.id,
			"error":      err.Error(),
		})
	}
}

func (m *Manager) completion(st *State) Completion {
	next, _ := m.schema.NextMissing(st.values)
	return Completion{
		SessionID:      st.id,
		IsComplete:     m.schema.IsComplete(st.values),
		CollectedCount: m.schema.CollectedCount(st.values),
		TotalRequired:  m.schema.Total(),
		NextField:      next.ID,
	}
}

// String is used by the CLI for progress lines
func (c Completion) String() string {
	return fmt.Sprintf("%d/%d fields collected", c.CollectedCount, c.TotalRequired)
}
