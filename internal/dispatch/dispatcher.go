package dispatch

import (
	"context"
	"fmt"
	"time"

	reqctx "skylark/opscommand/internal/context"
	"skylark/opscommand/internal/intent"
	"skylark/opscommand/internal/llm"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/metrics"
	"skylark/opscommand/internal/models"
	"skylark/opscommand/internal/services"
)

const (
	// UnavailableReply is used when the model cannot be reached
	UnavailableReply = "The assistant is unavailable right now. Please try again in a moment."
	// HelpReply answers unmatched messages when no model is configured
	HelpReply = "I can list pilots (by skill or availability), check whether a pilot is free on a date, and update a pilot's status. For example: \"show available thermal pilots\", \"is P1 free on 2025-03-01\" or \"mark P3 on leave\"."

	OutcomeModelUnavailable = "model_unavailable"
	OutcomeToolError        = "tool_error"
)

// Turn describes what happened during one ProcessTurn call
type Turn struct {
	Reply      string
	Kind       intent.Kind
	Tool       models.ToolName
	Arguments  *models.ToolArguments
	Outcome    string
	ToolResult string
	Duration   time.Duration
}

// AuditEntry is one executed tool call
type AuditEntry struct {
	SessionID string
	Resolver  string
	Tool      models.ToolName
	Arguments string
	Outcome   string
	Duration  time.Duration
}

// AuditRecorder persists executed tool calls
type AuditRecorder interface {
	RecordToolCall(ctx context.Context, entry AuditEntry) error
}

// Dispatcher runs the resolve, invoke, summarise cycle for chat turns
type Dispatcher struct {
	resolver intent.Resolver
	model    llm.Client
	roster   *services.RosterService
	audit    AuditRecorder
	metrics  *metrics.MetricsRegistry
	locks    *sessionLocks
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithAudit records every tool call through rec
func WithAudit(rec AuditRecorder) Option {
	return func(d *Dispatcher) { d.audit = rec }
}

// WithMetrics reports turns and tool calls to m
func WithMetrics(m *metrics.MetricsRegistry) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher. model may be nil when the resolver does
// not need one; tool results are then returned without a summary.
func NewDispatcher(resolver intent.Resolver, model llm.Client, roster *services.RosterService, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		model:    model,
		roster:   roster,
		locks:    newSessionLocks(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TurnOption adjusts a single turn
type TurnOption func(*turnConfig)

type turnConfig struct {
	readOnly bool
}

// ReadOnly refuses status updates for this turn
func ReadOnly() TurnOption {
	return func(c *turnConfig) { c.readOnly = true }
}

// SessionStore loads and saves session histories
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (models.History, error)
	SaveSession(ctx context.Context, h models.History) error
}

// ProcessTurn handles one user message. The given history is not modified;
// the returned history has the user message, any hidden tool traffic and the
// reply appended. Turns of the same session run one at a time. An error is
// only returned when the session lock cannot be taken.
func (d *Dispatcher) ProcessTurn(ctx context.Context, history models.History, text string, opts ...TurnOption) (models.History, Turn, error) {
	unlock, err := d.locks.acquire(ctx, history.SessionID)
	if err != nil {
		return history, Turn{}, err
	}
	defer unlock()

	updated, turn := d.runTurn(ctx, history, text, opts)
	return updated, turn, nil
}

// ProcessSessionTurn runs a turn against the stored history of sessionID. The
// session lock is held from loading the history until the updated history is
// saved, so a concurrent turn always starts from the previous turn's result.
func (d *Dispatcher) ProcessSessionTurn(ctx context.Context, store SessionStore, sessionID, text string, opts ...TurnOption) (models.History, Turn, error) {
	unlock, err := d.locks.acquire(ctx, sessionID)
	if err != nil {
		return models.History{}, Turn{}, err
	}
	defer unlock()

	history, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return models.History{}, Turn{}, err
	}

	updated, turn := d.runTurn(ctx, history, text, opts)

	if err := store.SaveSession(ctx, updated); err != nil {
		logging.Error("Failed to save session", "session_id", sessionID, "error", err.Error())
		return history, turn, fmt.Errorf("save session: %w", err)
	}
	return updated, turn, nil
}

func (d *Dispatcher) runTurn(ctx context.Context, history models.History, text string, opts []TurnOption) (models.History, Turn) {
	var cfg turnConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	log := logging.WithSession(history.SessionID, reqctx.GetRequestID(ctx))

	h := history.Append(models.Message{Role: models.RoleUser, Content: text})

	res, err := d.resolver.Resolve(ctx, h, text)
	if err != nil {
		log.Warnw("Intent resolution failed", "resolver", d.resolver.Name(), "error", err.Error())
		turn := Turn{Reply: UnavailableReply, Kind: intent.KindDirectReply, Outcome: OutcomeModelUnavailable}
		return d.finish(h, turn, start), turn.withDuration(start)
	}

	turn := Turn{Kind: res.Kind}

	switch res.Kind {
	case intent.KindToolCall:
		inv := *res.Invocation
		turn.Tool = inv.Tool
		turn.Arguments = &inv.Arguments

		toolStart := time.Now()
		result, outcome := d.invoke(ctx, inv, cfg)
		turn.Outcome = outcome
		turn.ToolResult = services.FormatToolResult(result)
		d.metrics.CountToolInvocation(string(inv.Tool), outcome)
		d.recordAudit(ctx, history.SessionID, inv, outcome, time.Since(toolStart))

		log.Infow("Tool invoked",
			"resolver", d.resolver.Name(),
			"tool", string(inv.Tool),
			"arguments", inv.JSON(),
			"outcome", outcome,
			"duration_ms", time.Since(toolStart).Milliseconds(),
		)

		h = h.Append(
			models.Message{Role: models.RoleAssistant, Content: inv.JSON(), Hidden: true},
			models.Message{Role: models.RoleUser, Content: toolResultMessage(inv.Tool, turn.ToolResult), Hidden: true},
		)
		turn.Reply = d.summarise(ctx, h, turn.ToolResult)

	case intent.KindDirectReply, intent.KindNeedMoreInfo:
		turn.Reply = res.Reply

	default:
		turn.Reply = d.freeReply(ctx, h)
	}

	return d.finish(h, turn, start), turn.withDuration(start)
}

func (d *Dispatcher) finish(h models.History, turn Turn, start time.Time) models.History {
	d.metrics.ObserveTurn(d.resolver.Name(), string(turn.Kind), time.Since(start))
	return h.Append(models.Message{Role: models.RoleAssistant, Content: turn.Reply})
}

func (t Turn) withDuration(start time.Time) Turn {
	t.Duration = time.Since(start)
	return t
}

// summarise asks the model to phrase the tool result. The formatted result is
// the reply when no model is available or the call fails.
func (d *Dispatcher) summarise(ctx context.Context, h models.History, formatted string) string {
	if d.model == nil {
		return formatted
	}
	out, err := d.model.Complete(ctx, withSystemPrompt(h.Messages))
	if err != nil {
		logging.Warn("Summary model call failed, returning formatted result",
			"session_id", h.SessionID,
			"error", err.Error(),
		)
		return formatted
	}
	return out
}

// freeReply answers messages no rule matched
func (d *Dispatcher) freeReply(ctx context.Context, h models.History) string {
	if d.model == nil {
		return HelpReply
	}
	out, err := d.model.Complete(ctx, withSystemPrompt(h.Messages))
	if err != nil {
		logging.Warn("Fallback model call failed", "session_id", h.SessionID, "error", err.Error())
		return UnavailableReply
	}
	return out
}

// invoke runs exactly one tool. A panic inside the tool is turned into text.
func (d *Dispatcher) invoke(ctx context.Context, inv models.ToolInvocation, cfg turnConfig) (result any, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Tool panicked", "tool", string(inv.Tool), "panic", fmt.Sprint(r))
			result = fmt.Sprintf("Tool error: %v", r)
			outcome = OutcomeToolError
		}
	}()

	args := inv.Arguments
	switch inv.Tool {
	case models.ToolRoster:
		r := d.roster.LookupRoster(ctx, services.RosterQuery{Skill: args.Skill, OnlyAvailable: args.OnlyAvailable})
		return r, string(r.Outcome)

	case models.ToolConflict:
		v := d.roster.CheckConflict(ctx, args.PilotID, args.Date)
		return v, string(v.Outcome)

	case models.ToolUpdate:
		if cfg.readOnly {
			r := services.UpdateResult{Outcome: services.UpdateForbidden, PilotID: args.PilotID, Status: args.Status}
			return r, string(r.Outcome)
		}
		status, err := models.ParsePilotStatus(args.Status)
		if err != nil {
			r := services.UpdateResult{Outcome: services.UpdateInvalidStatus, PilotID: args.PilotID, Status: args.Status}
			return r, string(r.Outcome)
		}
		r := d.roster.UpdatePilotStatus(ctx, args.PilotID, status)
		return r, string(r.Outcome)
	}

	return fmt.Sprintf("Tool error: unsupported tool %q", inv.Tool), OutcomeToolError
}

func (d *Dispatcher) recordAudit(ctx context.Context, sessionID string, inv models.ToolInvocation, outcome string, dur time.Duration) {
	if d.audit == nil {
		return
	}
	err := d.audit.RecordToolCall(ctx, AuditEntry{
		SessionID: sessionID,
		Resolver:  d.resolver.Name(),
		Tool:      inv.Tool,
		Arguments: inv.JSON(),
		Outcome:   outcome,
		Duration:  dur,
	})
	if err != nil {
		logging.Warn("Failed to record tool audit", "session_id", sessionID, "error", err.Error())
	}
}

func toolResultMessage(tool models.ToolName, formatted string) string {
	return fmt.Sprintf("Tool result (%s):\n\n%s", tool, formatted)
}

func withSystemPrompt(msgs []models.Message) []models.Message {
	if len(msgs) > 0 && msgs[0].Role == models.RoleSystem {
		return msgs
	}
	return append([]models.Message{{Role: models.RoleSystem, Content: intent.SystemPrompt}}, msgs...)
}
