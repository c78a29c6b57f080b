package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/intent"
	"skylark/opscommand/internal/metrics"
	"skylark/opscommand/internal/models"
	"skylark/opscommand/internal/providers"
	"skylark/opscommand/internal/services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedModel returns its replies in order and records every request
type scriptedModel struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests [][]models.Message
}

func (s *scriptedModel) Name() string { return "scripted" }

func (s *scriptedModel) Complete(ctx context.Context, messages []models.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.requests)
	s.requests = append(s.requests, messages)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

func (s *scriptedModel) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type memAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (m *memAudit) RecordToolCall(ctx context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func testRoster() (*providers.MemoryStore, *services.RosterService) {
	store := providers.NewMemoryStore(providers.DefaultLayouts(constants.TablePilots, constants.TableMissions))
	store.Seed(constants.TablePilots,
		map[string]string{"pilot_id": "P1", "name": "Arjun", "skills": "Mapping", "location": "Bangalore", "status": "Available"},
		map[string]string{"pilot_id": "P2", "name": "Neha", "skills": "Thermal", "location": "Mumbai", "status": "Assigned", "current_assignment": "PRJ001"},
		map[string]string{"pilot_id": "P4", "name": "Sara", "skills": "Thermal", "location": "Pune", "status": "Available"},
	)
	return store, services.NewRosterService(store, services.RosterServiceConfig{})
}

func newHistory() models.History {
	return models.NewHistory("session-1", intent.SystemPrompt)
}

func TestProcessTurn_StructuredToolCall(t *testing.T) {
	store, roster := testRoster()
	model := &scriptedModel{replies: []string{
		`{"tool":"update_pilot_status","arguments":{"pilot_id":"P2","status":"On Leave"}}`,
		"Done, Neha is now on leave.",
	}}
	audit := &memAudit{}
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	d := NewDispatcher(intent.NewStructuredResolver(model), model, roster, WithAudit(audit), WithMetrics(m))

	in := newHistory()
	out, turn, err := d.ProcessTurn(context.Background(), in, "please put her on leave")
	require.NoError(t, err)

	assert.Equal(t, intent.KindToolCall, turn.Kind)
	assert.Equal(t, models.ToolUpdate, turn.Tool)
	assert.Equal(t, string(services.UpdateApplied), turn.Outcome)
	assert.Equal(t, "Done, Neha is now on leave.", turn.Reply)
	assert.Contains(t, turn.ToolResult, "### ✅ Status Updated")
	assert.Equal(t, 1, store.Writes())

	// input history untouched
	assert.Len(t, in.Messages, 1)

	// system, user, hidden call, hidden result, assistant reply
	require.Len(t, out.Messages, 5)
	visible := out.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "please put her on leave", visible[0].Content)
	assert.Equal(t, "Done, Neha is now on leave.", visible[1].Content)

	// second call sees the tool result
	require.Equal(t, 2, model.calls())
	last := model.requests[1][len(model.requests[1])-1]
	assert.Contains(t, last.Content, "Tool result (update_pilot_status)")

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "session-1", audit.entries[0].SessionID)
	assert.Equal(t, "structured", audit.entries[0].Resolver)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolInvocationsTotal.WithLabelValues("update_pilot_status", "updated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TurnsTotal.WithLabelValues("structured", "tool_call")))
}

func TestProcessTurn_DirectReplyMakesNoToolCall(t *testing.T) {
	store, roster := testRoster()
	model := &scriptedModel{replies: []string{"Sure, how can I help?"}}
	audit := &memAudit{}
	d := NewDispatcher(intent.NewStructuredResolver(model), model, roster, WithAudit(audit))

	out, turn, err := d.ProcessTurn(context.Background(), newHistory(), "hi")
	require.NoError(t, err)

	assert.Equal(t, intent.KindDirectReply, turn.Kind)
	assert.Equal(t, "Sure, how can I help?", turn.Reply)
	assert.Empty(t, turn.Tool)
	assert.Equal(t, 1, model.calls())
	assert.Empty(t, audit.entries)
	assert.Equal(t, 0, store.Writes())
	assert.Len(t, out.Messages, 3)
}

func TestProcessTurn_HeuristicRosterWithoutModel(t *testing.T) {
	_, roster := testRoster()
	d := NewDispatcher(intent.NewHeuristicResolver(), nil, roster)

	_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "show available thermal pilots")
	require.NoError(t, err)

	assert.Equal(t, models.ToolRoster, turn.Tool)
	assert.Equal(t, string(services.RosterFound), turn.Outcome)
	assert.Equal(t, turn.ToolResult, turn.Reply)
	assert.Contains(t, turn.Reply, "P4")
	assert.NotContains(t, turn.Reply, "P2")
}

func TestProcessTurn_NeedMoreInfo(t *testing.T) {
	_, roster := testRoster()
	model := &scriptedModel{}
	d := NewDispatcher(intent.NewHeuristicResolver(), model, roster)

	_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "is P1 free")
	require.NoError(t, err)

	assert.Equal(t, intent.KindNeedMoreInfo, turn.Kind)
	assert.Contains(t, turn.Reply, "YYYY-MM-DD")
	assert.Empty(t, turn.Tool)
	assert.Equal(t, 0, model.calls())
}

func TestProcessTurn_FallbackUsesModel(t *testing.T) {
	_, roster := testRoster()
	model := &scriptedModel{replies: []string{"Hello! Ask me about pilots."}}
	d := NewDispatcher(intent.NewHeuristicResolver(), model, roster)

	_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "good morning")
	require.NoError(t, err)

	assert.Equal(t, intent.KindFallback, turn.Kind)
	assert.Equal(t, "Hello! Ask me about pilots.", turn.Reply)
}

func TestProcessTurn_ModelFailures(t *testing.T) {
	_, roster := testRoster()

	t.Run("resolution fails", func(t *testing.T) {
		model := &scriptedModel{errs: []error{errors.New("down")}}
		d := NewDispatcher(intent.NewStructuredResolver(model), model, roster)

		out, turn, err := d.ProcessTurn(context.Background(), newHistory(), "hi")
		require.NoError(t, err)
		assert.Equal(t, UnavailableReply, turn.Reply)
		assert.Equal(t, OutcomeModelUnavailable, turn.Outcome)
		assert.Equal(t, UnavailableReply, out.Messages[len(out.Messages)-1].Content)
	})

	t.Run("summary fails", func(t *testing.T) {
		model := &scriptedModel{
			replies: []string{`{"tool":"check_conflicts","arguments":{"pilot_id":"P2"}}`},
			errs:    []error{nil, errors.New("down")},
		}
		d := NewDispatcher(intent.NewStructuredResolver(model), model, roster)

		_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "can P2 fly?")
		require.NoError(t, err)
		assert.Equal(t, turn.ToolResult, turn.Reply)
		assert.Contains(t, turn.Reply, "PRJ001")
	})

	t.Run("fallback fails", func(t *testing.T) {
		model := &scriptedModel{errs: []error{errors.New("down")}}
		d := NewDispatcher(intent.NewHeuristicResolver(), model, roster)

		_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "good morning")
		require.NoError(t, err)
		assert.Equal(t, UnavailableReply, turn.Reply)
	})
}

func TestProcessTurn_ReadOnlyRefusesUpdates(t *testing.T) {
	store, roster := testRoster()
	d := NewDispatcher(intent.NewHeuristicResolver(), nil, roster)

	_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "mark P1 on leave", ReadOnly())
	require.NoError(t, err)

	assert.Equal(t, string(services.UpdateForbidden), turn.Outcome)
	assert.Equal(t, 0, store.Writes())
}

func TestProcessTurn_InvalidStatus(t *testing.T) {
	store, roster := testRoster()
	model := &scriptedModel{replies: []string{
		`{"tool":"update_pilot_status","arguments":{"pilot_id":"P1","status":"Retired"}}`,
		"That status is not valid.",
	}}
	d := NewDispatcher(intent.NewStructuredResolver(model), model, roster)

	_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "retire that pilot")
	require.NoError(t, err)

	assert.Equal(t, string(services.UpdateInvalidStatus), turn.Outcome)
	assert.Contains(t, turn.ToolResult, "not a valid status")
	assert.Equal(t, 0, store.Writes())
}

// panickyResolver hands out an invocation the dispatcher has no tool for
type panickyResolver struct{}

func (panickyResolver) Name() string { return "test" }

func (panickyResolver) Resolve(ctx context.Context, h models.History, text string) (intent.Resolution, error) {
	return intent.Resolution{Kind: intent.KindToolCall, Invocation: &models.ToolInvocation{Tool: models.ToolRoster}}, nil
}

func TestProcessTurn_ToolErrorBecomesText(t *testing.T) {
	// nil roster service makes the tool panic
	d := NewDispatcher(panickyResolver{}, nil, nil)

	_, turn, err := d.ProcessTurn(context.Background(), newHistory(), "anything")
	require.NoError(t, err)

	assert.Equal(t, OutcomeToolError, turn.Outcome)
	assert.True(t, strings.HasPrefix(turn.Reply, "Tool error:"), turn.Reply)
}

// blockingResolver waits until released so turn overlap can be observed
type blockingResolver struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	release chan struct{}
}

func (b *blockingResolver) Name() string { return "blocking" }

func (b *blockingResolver) Resolve(ctx context.Context, h models.History, text string) (intent.Resolution, error) {
	b.mu.Lock()
	b.active++
	if b.active > b.maxSeen {
		b.maxSeen = b.active
	}
	b.mu.Unlock()

	<-b.release

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	return intent.Resolution{Kind: intent.KindDirectReply, Reply: "ok"}, nil
}

func TestProcessTurn_SerialisesPerSession(t *testing.T) {
	r := &blockingResolver{release: make(chan struct{})}
	d := NewDispatcher(r, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := d.ProcessTurn(context.Background(), newHistory(), "hi")
			assert.NoError(t, err)
		}()
	}

	for i := 0; i < 3; i++ {
		r.release <- struct{}{}
	}
	wg.Wait()

	assert.Equal(t, 1, r.maxSeen)
	assert.Equal(t, 0, d.locks.size())
}

func TestProcessTurn_BusySessionHonoursContext(t *testing.T) {
	r := &blockingResolver{release: make(chan struct{})}
	d := NewDispatcher(r, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.ProcessTurn(context.Background(), newHistory(), "first")
	}()

	// wait until the first turn holds the lock
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.active == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := d.ProcessTurn(ctx, newHistory(), "second")
	assert.ErrorIs(t, err, ErrSessionBusy)

	r.release <- struct{}{}
	<-done
	assert.Equal(t, 0, d.locks.size())
}

// memSessions is a map-backed SessionStore that copies on read and write
type memSessions struct {
	mu      sync.Mutex
	byID    map[string]models.History
	saveErr error
}

func (m *memSessions) GetSession(ctx context.Context, id string) (models.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.byID[id]
	if !ok {
		return models.History{}, errors.New("no such session")
	}
	h.Messages = append([]models.Message(nil), h.Messages...)
	return h, nil
}

func (m *memSessions) SaveSession(ctx context.Context, h models.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	h.Messages = append([]models.Message(nil), h.Messages...)
	m.byID[h.SessionID] = h
	return nil
}

func TestProcessSessionTurn_ConcurrentTurnsKeepHistory(t *testing.T) {
	_, roster := testRoster()
	d := NewDispatcher(intent.NewHeuristicResolver(), nil, roster)
	store := &memSessions{byID: map[string]models.History{"session-1": newHistory()}}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, turn, err := d.ProcessSessionTurn(context.Background(), store, "session-1", "hello")
			assert.NoError(t, err)
			assert.Equal(t, HelpReply, turn.Reply)
		}()
	}
	wg.Wait()

	h, err := store.GetSession(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Len(t, h.Visible(), 10)
	assert.Equal(t, 0, d.locks.size())
}

func TestProcessSessionTurn_StoreErrors(t *testing.T) {
	_, roster := testRoster()
	d := NewDispatcher(intent.NewHeuristicResolver(), nil, roster)

	store := &memSessions{byID: map[string]models.History{}}
	_, _, err := d.ProcessSessionTurn(context.Background(), store, "missing", "hello")
	assert.Error(t, err)

	saveErr := errors.New("cache down")
	store = &memSessions{byID: map[string]models.History{"session-1": newHistory()}, saveErr: saveErr}
	_, turn, err := d.ProcessSessionTurn(context.Background(), store, "session-1", "hello")
	assert.ErrorIs(t, err, saveErr)
	assert.Equal(t, HelpReply, turn.Reply)
	assert.Equal(t, 0, d.locks.size())
}
