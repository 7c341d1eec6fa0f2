package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/govalues/decimal"

	"calcpad/internal/database/repository"
	"calcpad/internal/engine"
	"calcpad/internal/handlers"
	"calcpad/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

const (
	defaultTapeLimit = 50
	maxTapeLimit     = 500
)

// TapeStore is the persisted evaluation log. Recent lists newest first;
// Entry returns nil for an unknown id.
type TapeStore interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]repository.TapeEntry, error)
	Total(ctx context.Context, sessionID string) (int, error)
	Entry(ctx context.Context, id string) (*repository.TapeEntry, error)
	Forget(ctx context.Context, sessionID string) (int64, error)
}

// Handler serves the stateful endpoints. Recorder and Tape are optional.
type Handler struct {
	Sessions *Store
	Recorder Recorder
	Tape     TapeStore
}

// ---------------------------------------------------------------------------
// Handlers: binary operations
// ---------------------------------------------------------------------------

// Add handles POST /calculator/add
func Add(w http.ResponseWriter, r *http.Request) { handleBinaryOp(w, r, engine.Add) }

// Subtract handles POST /calculator/subtract
func Subtract(w http.ResponseWriter, r *http.Request) { handleBinaryOp(w, r, engine.Subtract) }

// Multiply handles POST /calculator/multiply
func Multiply(w http.ResponseWriter, r *http.Request) { handleBinaryOp(w, r, engine.Multiply) }

// Divide handles POST /calculator/divide. A zero divisor is a 400.
func Divide(w http.ResponseWriter, r *http.Request) { handleBinaryOp(w, r, engine.Divide) }

// handleBinaryOp evaluates a single "<a> <op> <b>" with exact decimals.
func handleBinaryOp(w http.ResponseWriter, r *http.Request, op engine.Operation) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	opName := op.Name()

	ctx, span := tracer.Start(ctx, "calculator."+opName,
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	a, errA := decimal.Parse(req.A)
	b, errB := decimal.Parse(req.B)
	if err := errors.Join(errA, errB); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid numeric input", err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.String("calculator.operand.a", a.String()),
		attribute.String("calculator.operand.b", b.String()),
	)

	start := time.Now()
	result, err := op.Apply(a, b)
	elapsed := sinceMillis(start)

	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, http.StatusBadRequest, w)
		return
	}

	ev := engine.Evaluation{Left: a, Operation: op, Right: b, Result: result}

	attrs := metric.WithAttributes(attribute.String("action", opName))
	actionsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)
	recordResult(ctx, ev)

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.String("result", ev.ResultText()),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.String("calculator.result", ev.ResultText()))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.Stringer("a", a),
		zap.Stringer("b", b),
		zap.String("result", ev.ResultText()),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, CalcResponse{
		Operation:  opName,
		A:          a.String(),
		B:          b.String(),
		Result:     ev.ResultText(),
		Expression: ev.String(),
	})
}

// ---------------------------------------------------------------------------
// Handlers: keypad sequences and sessions
// ---------------------------------------------------------------------------

// Evaluate handles POST /calculator/evaluate: it replays a keypad sequence on
// a throwaway engine, one child span per action, and returns every step.
func Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.evaluate",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	actions, ok := decodeActions(ctx, span, logger, "evaluate", w, r)
	if !ok {
		return
	}

	var c engine.Calculator
	steps, _ := applyActions(ctx, &c, actions)
	snap := c.Snapshot()

	span.SetAttributes(
		attribute.Int("calculator.actions", len(actions)),
		attribute.String("calculator.display", snap.Display),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("keypad sequence evaluated",
		zap.Int("actions", len(actions)),
		zap.String("display", snap.Display),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Steps: steps,
		State: stateFrom("", snap),
	})
}

// CreateSession handles POST /calculator/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "calculator.session.create")
	defer span.End()

	s, err := h.Sessions.Create()
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "session.create", err.Error(), err, statusFor(err), w)
		return
	}
	span.SetAttributes(attribute.String("session.id", s.ID))
	span.SetStatus(codes.Ok, "")

	logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.Int("sessions", h.Sessions.Len()),
	)

	handlers.WriteJSON(w, http.StatusCreated, stateFrom(s.ID, s.Snapshot()))
}

// GetSession handles GET /calculator/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.session.get",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	s, err := h.Sessions.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "session.get", err.Error(), err, statusFor(err), w)
		return
	}
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, stateFrom(s.ID, s.Snapshot()))
}

// ApplyActions handles POST /calculator/sessions/{id}/actions. The batch is
// applied atomically with respect to other requests on the same session.
func (h *Handler) ApplyActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.session.actions",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	s, err := h.Sessions.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "session.actions", err.Error(), err, statusFor(err), w)
		return
	}

	actions, ok := decodeActions(ctx, span, logger, "session.actions", w, r)
	if !ok {
		return
	}

	var (
		snap  engine.Snapshot
		evals []engine.Evaluation
	)
	s.Do(func(c *engine.Calculator) {
		_, evals = applyActions(ctx, c, actions)
		snap = c.Snapshot()
	})

	h.record(ctx, logger, s.ID, evals)

	span.SetAttributes(
		attribute.Int("calculator.actions", len(actions)),
		attribute.Int("calculator.evaluations", len(evals)),
		attribute.String("calculator.display", snap.Display),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("session actions applied",
		zap.String("session_id", s.ID),
		zap.Int("actions", len(actions)),
		zap.Int("evaluations", len(evals)),
		zap.String("display", snap.Display),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, stateFrom(s.ID, snap))
}

// DeleteSession handles DELETE /calculator/sessions/{id}?forget=. With
// forget=true the session's tape entries are dropped as well.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.session.delete",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	forget := false
	if raw := r.URL.Query().Get("forget"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			observability.RecordError(ctx, span, logger, errorCounter, "session.delete", fmt.Sprintf("forget must be a boolean, got %q", raw), err, http.StatusBadRequest, w)
			return
		}
		forget = v
	}

	if err := h.Sessions.Delete(id); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "session.delete", err.Error(), err, statusFor(err), w)
		return
	}

	var removed int64
	if forget && h.Tape != nil {
		n, err := h.Tape.Forget(ctx, id)
		if err != nil {
			observability.RecordError(ctx, span, logger, errorCounter, "session.delete", "forgetting tape entries failed", err, http.StatusInternalServerError, w)
			return
		}
		removed = n
	}

	span.SetAttributes(attribute.Int64("tape.removed", removed))
	span.SetStatus(codes.Ok, "")
	logger.Info("session deleted",
		zap.String("session_id", id),
		zap.Bool("forget", forget),
		zap.Int64("tape_removed", removed),
	)
	w.WriteHeader(http.StatusNoContent)
}

// TapeEntries handles GET /calculator/tape?session=&limit=.
func (h *Handler) TapeEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	sessionID := r.URL.Query().Get("session")

	ctx, span := tracer.Start(ctx, "calculator.tape.list",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if h.Tape == nil {
		handlers.WriteError(w, http.StatusNotFound, "tape is disabled")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "tape.list", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	entries, err := h.Tape.Recent(ctx, sessionID, limit)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "tape.list", "reading tape failed", err, http.StatusInternalServerError, w)
		return
	}
	total, err := h.Tape.Total(ctx, sessionID)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "tape.list", "counting tape failed", err, http.StatusInternalServerError, w)
		return
	}

	resp := TapeResponse{Total: total, Entries: make([]TapeEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, tapeEntryFrom(e))
	}
	span.SetAttributes(
		attribute.Int("tape.entries", len(entries)),
		attribute.Int("tape.total", total),
	)
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// TapeEntry handles GET /calculator/tape/{entryID}.
func (h *Handler) TapeEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "entryID")

	ctx, span := tracer.Start(ctx, "calculator.tape.get",
		trace.WithAttributes(attribute.String("tape.entry.id", id)),
	)
	defer span.End()

	if h.Tape == nil {
		handlers.WriteError(w, http.StatusNotFound, "tape is disabled")
		return
	}

	e, err := h.Tape.Entry(ctx, id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "tape.get", "reading tape failed", err, http.StatusInternalServerError, w)
		return
	}
	if e == nil {
		observability.RecordError(ctx, span, logger, errorCounter, "tape.get", "tape entry not found", fmt.Errorf("tape entry %q not found", id), http.StatusNotFound, w)
		return
	}
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, tapeEntryFrom(*e))
}

// record forwards a batch's evaluations to the recorder in one call. Failures
// are logged only; the calculator state is already committed.
func (h *Handler) record(ctx context.Context, logger *zap.Logger, sessionID string, evals []engine.Evaluation) {
	if h.Recorder == nil || len(evals) == 0 {
		return
	}
	if err := h.Recorder.Record(ctx, sessionID, evals...); err != nil {
		errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "tape.record")))
		logger.Warn("recording evaluations failed",
			zap.String("session_id", sessionID),
			zap.Int("evaluations", len(evals)),
			zap.Error(err),
		)
	}
}

func decodeActions(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, w http.ResponseWriter, r *http.Request) ([]engine.Action, bool) {
	var req ActionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return nil, false
	}
	if len(req.Actions) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "no actions provided", fmt.Errorf("actions array is empty"), http.StatusBadRequest, w)
		return nil, false
	}
	actions, err := ParseActions(req.Actions)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, http.StatusBadRequest, w)
		return nil, false
	}
	return actions, true
}

// applyActions performs actions in order, one child span each, and returns
// the per-step displays and the evaluations they produced.
func applyActions(ctx context.Context, c *engine.Calculator, actions []engine.Action) ([]StepResult, []engine.Evaluation) {
	steps := make([]StepResult, 0, len(actions))
	var evals []engine.Evaluation
	for i, a := range actions {
		step, ev, evaluated := applyAction(ctx, c, i, a)
		steps = append(steps, step)
		if evaluated {
			evals = append(evals, ev)
		}
	}
	return steps, evals
}

func applyAction(ctx context.Context, c *engine.Calculator, i int, a engine.Action) (StepResult, engine.Evaluation, bool) {
	name := ActionName(a)
	ctx, span := tracer.Start(ctx, "calculator.action."+name,
		trace.WithAttributes(
			attribute.Int("calculator.action.index", i),
			attribute.String("calculator.action", a.String()),
		),
	)
	defer span.End()

	before := c.EvaluationCount()
	start := time.Now()
	c.Perform(a)
	elapsed := sinceMillis(start)

	attrs := metric.WithAttributes(attribute.String("action", name))
	actionsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)

	step := StepResult{Action: a.String(), Display: c.DisplayText()}
	span.SetAttributes(attribute.String("calculator.display", step.Display))

	if c.EvaluationCount() == before {
		span.SetStatus(codes.Ok, "")
		return step, engine.Evaluation{}, false
	}

	ev, _ := c.LastEvaluation()
	step.Expression = ev.String()
	span.AddEvent("evaluation", trace.WithAttributes(
		attribute.String("expression", step.Expression),
	))
	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
		errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", ev.Operation.Name())))
	} else {
		recordResult(ctx, ev)
		span.SetStatus(codes.Ok, "")
	}
	return step, ev, true
}

func recordResult(ctx context.Context, ev engine.Evaluation) {
	if f, ok := ev.Result.Float64(); ok {
		resultGauge.Record(ctx, f, metric.WithAttributes(attribute.String("operation", ev.Operation.Name())))
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultTapeLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(n, maxTapeLimit), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
