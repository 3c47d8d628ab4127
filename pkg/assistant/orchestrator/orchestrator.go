// Package orchestrator drives one chat turn from the inbound message to the
// terminal done event: classify, pick a prompt, relay the generation stream,
// enrich book references, finalize.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/assistant/enrich"
	"library-ai-be/pkg/assistant/event"
	"library-ai-be/pkg/assistant/failure"
	"library-ai-be/pkg/assistant/history"
	"library-ai-be/pkg/assistant/intent"
	"library-ai-be/pkg/assistant/prompt"
	"library-ai-be/pkg/assistant/stream"
	"library-ai-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Stage string

const (
	StageInit        Stage = "init"
	StageClassifying Stage = "classifying"
	StageStreaming   Stage = "streaming"
	StageEnriching   Stage = "enriching"
	StageFinalizing  Stage = "finalizing"
	StageDone        Stage = "done"
	StageErrorAbort  Stage = "error_abort"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultCeiling        = 30 * time.Minute
	DefaultPersistTimeout = 30 * time.Second
	terminalSendTimeout   = 5 * time.Second
)

// ErrDraining rejects turns that arrive after Drain has started.
var ErrDraining = errors.New("orchestrator is draining")

// Request is what a transport hands over for one turn.
type Request struct {
	RequestID  string
	Credential string
	SessionID  string
	Message    string
	ReceivedAt time.Time
}

// RequestContext is fixed once Init succeeds and never shared between turns.
type RequestContext struct {
	RequestID  string
	UserID     uuid.UUID
	SessionID  uuid.UUID
	Message    string
	Profile    string
	ReceivedAt time.Time
}

// Outcome reports how a turn ended.
type Outcome struct {
	Stage     Stage // StageDone or StageErrorAbort
	FailedIn  Stage
	Err       error
	SessionID uuid.UUID
	Intent    intent.Intent
	Chunks    int
	Titles    []string
	Resolved  int
}

type Config struct {
	HistoryLimit   int
	MaxLength      int
	Ceiling        time.Duration
	PersistTimeout time.Duration
}

type Deps struct {
	Identity   IdentityResolver
	Store      ConversationStore
	Classifier IntentClassifier
	Generator  llm.StreamGenerator
	Enricher   *enrich.Enricher // nil disables enrichment
	Observer   TurnObserver
	Recorder   Recorder
	Logger     logger.ILogger
	Tracer     trace.Tracer
	Now        func() time.Time
}

type Orchestrator struct {
	identity   IdentityResolver
	store      ConversationStore
	classifier IntentClassifier
	generator  llm.StreamGenerator
	enricher   *enrich.Enricher
	observer   TurnObserver
	recorder   Recorder
	logger     logger.ILogger
	tracer     trace.Tracer
	now        func() time.Time
	cfg        Config

	// mu orders pending.Add against the start of Drain.
	mu       sync.Mutex
	draining bool
	pending  sync.WaitGroup
}

func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = history.DefaultLimit
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = prompt.DefaultMaxLength
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultCeiling
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}

	o := &Orchestrator{
		identity:   deps.Identity,
		store:      deps.Store,
		classifier: deps.Classifier,
		generator:  deps.Generator,
		enricher:   deps.Enricher,
		observer:   deps.Observer,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		tracer:     deps.Tracer,
		now:        deps.Now,
		cfg:        cfg,
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}
	if o.logger == nil {
		o.logger = logger.NewNopLogger()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("library-ai-be/orchestrator")
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// turn is the exclusive per-request state.
type turn struct {
	req     Request
	rc      RequestContext
	intent  intent.Intent
	history []llm.Message
	state   *stream.State
	out     *event.Sequencer
	started time.Time
}

// Run executes one turn and writes its events to sink. It always ends with
// exactly one done event unless the client itself is gone.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink event.Sink) Outcome {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Ceiling)
	defer cancel()

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = o.now()
	}

	t := &turn{
		req:     req,
		state:   stream.NewState(),
		out:     event.NewSequencer(sink),
		started: o.now(),
	}

	o.recorder.TurnStarted()

	if o.isDraining() {
		return o.abort(ctx, StageInit, t, failure.Wrap(failure.KindInternal, string(StageInit), ErrDraining))
	}

	ctx, span := o.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("request.id", req.RequestID),
	))
	defer span.End()

	stage := StageInit
	for {
		next, err := o.step(ctx, stage, t)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return o.abort(ctx, stage, t, err)
		}
		if next == StageDone {
			outcome := o.outcome(StageDone, t)
			o.recorder.TurnFinished(t.intent.String(), "ok", o.now().Sub(t.started))
			return outcome
		}
		stage = next
	}
}

func (o *Orchestrator) step(ctx context.Context, stage Stage, t *turn) (Stage, error) {
	ctx, span := o.tracer.Start(ctx, "chat."+string(stage))
	defer span.End()

	var (
		next Stage
		err  error
	)
	switch stage {
	case StageInit:
		next, err = o.initialize(ctx, t)
	case StageClassifying:
		next, err = o.classify(ctx, t)
	case StageStreaming:
		next, err = o.streamAnswer(ctx, t)
	case StageEnriching:
		next, err = o.enrich(ctx, t)
	case StageFinalizing:
		next, err = o.finalize(ctx, t)
	default:
		err = failure.Wrap(failure.KindInternal, string(stage), errors.New("no transition"))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return next, err
}

func (o *Orchestrator) initialize(ctx context.Context, t *turn) (Stage, error) {
	stage := string(StageInit)

	identity, err := o.identity.Resolve(ctx, t.req.Credential)
	if err != nil {
		return "", wrapCtx(ctx, failure.KindAuth, stage, err)
	}

	message := strings.TrimSpace(t.req.Message)
	if message == "" {
		return "", failure.Wrap(failure.KindInvalidInput, stage, errors.New("empty message"))
	}

	sessionID, err := o.store.EnsureSession(ctx, identity.UserID, strings.TrimSpace(t.req.SessionID))
	if err != nil {
		return "", wrapCtx(ctx, failure.KindSession, stage, err)
	}

	if err := o.store.AppendMessage(ctx, sessionID, identity.UserID, RoleUser, message); err != nil {
		return "", wrapCtx(ctx, failure.KindSession, stage, err)
	}

	entries, err := o.store.RecentMessages(ctx, sessionID, o.cfg.HistoryLimit)
	if err != nil {
		return "", wrapCtx(ctx, failure.KindSession, stage, err)
	}

	now := o.now()
	t.history = history.ToMessages(history.Window(entries, o.cfg.HistoryLimit, now))
	t.rc = RequestContext{
		RequestID:  t.req.RequestID,
		UserID:     identity.UserID,
		SessionID:  sessionID,
		Message:    message,
		Profile:    prompt.ProfilePrefix(identity.Grade, identity.Major, now),
		ReceivedAt: t.req.ReceivedAt,
	}

	o.logger.Info("ORCHESTRATOR", "Turn accepted", o.fields(t, map[string]interface{}{
		"history": len(t.history),
	}))
	return StageClassifying, nil
}

func (o *Orchestrator) classify(ctx context.Context, t *turn) (Stage, error) {
	// Only the latest message is classified, never the history.
	i, err := o.classifier.Classify(ctx, t.rc.Message)
	if err != nil {
		return "", wrapCtx(ctx, failure.KindClassification, string(StageClassifying), err)
	}
	t.intent = i
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("chat.intent", i.String()))
	return StageStreaming, nil
}

func (o *Orchestrator) streamAnswer(ctx context.Context, t *turn) (Stage, error) {
	stage := string(StageStreaming)

	req, err := prompt.Build(prompt.Input{
		History:   t.history,
		Question:  t.rc.Message,
		Template:  prompt.SelectTemplate(t.intent),
		Profile:   t.rc.Profile,
		MaxLength: o.cfg.MaxLength,
	})
	if err != nil {
		return "", failure.Wrap(failure.KindInternal, stage, err)
	}

	err = o.generator.StreamGenerate(ctx, req, func(frame string) error {
		res := stream.Parse(frame, t.state)
		o.recorder.FrameParsed(res.Outcome.String())

		switch res.Outcome {
		case stream.OutcomeMalformed:
			o.logger.Warn("ORCHESTRATOR", "Malformed frame relayed as text", o.fields(t, map[string]interface{}{
				"frame": frame,
			}))
		case stream.OutcomeEnd:
			o.logger.Debug("ORCHESTRATOR", "Upstream signalled end of stream", o.fields(t, nil))
		}

		if !res.Forward {
			return nil
		}
		if err := t.out.Send(ctx, event.Content(res.Payload)); err != nil {
			return failure.Wrap(failure.KindClientGone, stage, err)
		}
		return nil
	})
	if err != nil {
		var fe *failure.Error
		var se *llm.StatusError
		switch {
		case errors.As(err, &fe):
			return "", err
		case errors.As(err, &se):
			return "", failure.Wrap(failure.KindUpstreamClient, stage, err)
		case errors.Is(err, llm.ErrMissingText):
			return "", failure.Wrap(failure.KindInternal, stage, err)
		default:
			return "", wrapCtx(ctx, failure.KindUpstreamTransport, stage, err)
		}
	}

	if t.intent.Enrichable() && o.enricher != nil {
		return StageEnriching, nil
	}
	return StageFinalizing, nil
}

func (o *Orchestrator) enrich(ctx context.Context, t *turn) (Stage, error) {
	stage := string(StageEnriching)

	res, err := o.enricher.Enrich(ctx, t.state)
	if err != nil {
		return "", wrapCtx(ctx, failure.KindInternal, stage, err)
	}
	if res.Empty() {
		return StageFinalizing, nil
	}

	for _, book := range res.Books {
		if err := t.out.Send(ctx, event.Book(book)); err != nil {
			return "", failure.Wrap(failure.KindClientGone, stage, err)
		}
	}
	if err := t.out.Send(ctx, event.Summary(res.Summary)); err != nil {
		return "", failure.Wrap(failure.KindClientGone, stage, err)
	}

	o.logger.Info("ORCHESTRATOR", "Enrichment finished", o.fields(t, map[string]interface{}{
		"looked_up": len(res.Looked),
		"books":     len(res.Books),
	}))
	return StageFinalizing, nil
}

func (o *Orchestrator) finalize(ctx context.Context, t *turn) (Stage, error) {
	stage := string(StageFinalizing)

	o.persistAnswer(ctx, t)

	if err := t.out.Send(ctx, event.Completion()); err != nil {
		return "", failure.Wrap(failure.KindClientGone, stage, err)
	}
	if err := t.out.Send(ctx, event.Done()); err != nil {
		return "", failure.Wrap(failure.KindClientGone, stage, err)
	}

	o.logger.Info("ORCHESTRATOR", "Turn completed", o.fields(t, map[string]interface{}{
		"chunks":     t.state.Chunks(),
		"titles":     len(t.state.Titles()),
		"resolved":   t.state.ResolvedCount(),
		"elapsed_ms": o.now().Sub(t.started).Milliseconds(),
	}))
	return StageDone, nil
}

// persistAnswer stores the full answer and notifies the observer without
// holding up the client. It survives the request context.
func (o *Orchestrator) persistAnswer(ctx context.Context, t *turn) {
	answer := t.state.Text()
	summary := Turn{
		RequestID: t.rc.RequestID,
		SessionID: t.rc.SessionID,
		UserID:    t.rc.UserID,
		Intent:    t.intent,
		Message:   t.rc.Message,
		Titles:    t.state.Titles(),
		Resolved:  t.state.ResolvedCount(),
		Chunks:    t.state.Chunks(),
		Duration:  o.now().Sub(t.started),
	}
	fields := o.fields(t, nil)

	work := func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PersistTimeout)
		defer cancel()

		if answer != "" {
			if err := o.store.AppendMessage(pctx, summary.SessionID, summary.UserID, RoleAssistant, answer); err != nil {
				fields["error"] = err.Error()
				o.logger.Error("ORCHESTRATOR", "Failed to persist answer", fields)
				return
			}
		}
		summary.FinishedAt = o.now()
		o.observer.TurnCompleted(pctx, summary)
	}

	// Once Drain has started nobody waits for new work, so a turn finishing
	// late persists before it returns.
	if !o.track() {
		work()
		return
	}
	go func() {
		defer o.pending.Done()
		work()
	}()
}

func (o *Orchestrator) track() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.draining {
		return false
	}
	o.pending.Add(1)
	return true
}

func (o *Orchestrator) isDraining() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draining
}

// abort emits the single error event and done, unless the client is gone.
func (o *Orchestrator) abort(ctx context.Context, stage Stage, t *turn, err error) Outcome {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		err = wrapCtx(ctx, failure.KindInternal, string(stage), err)
	}
	kind := failure.KindOf(err)

	o.recorder.StageFailed(string(stage), kind.String())
	o.recorder.TurnFinished(t.intent.String(), kind.String(), o.now().Sub(t.started))

	fields := o.fields(t, map[string]interface{}{
		"stage": string(stage),
		"kind":  kind.String(),
		"error": err.Error(),
	})

	outcome := o.outcome(StageErrorAbort, t)
	outcome.FailedIn = stage
	outcome.Err = err

	if kind == failure.KindClientGone {
		o.logger.Warn("ORCHESTRATOR", "Client went away, turn abandoned", fields)
		return outcome
	}
	o.logger.Error("ORCHESTRATOR", "Turn aborted", fields)

	if t.out.Closed() {
		return outcome
	}

	// The request context may be the reason for the abort.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalSendTimeout)
	defer cancel()

	if err := t.out.Send(sendCtx, event.Failure(failure.UserMessage(err))); err != nil {
		o.logger.Warn("ORCHESTRATOR", "Could not deliver error event", fields)
		return outcome
	}
	if err := t.out.Send(sendCtx, event.Done()); err != nil {
		o.logger.Warn("ORCHESTRATOR", "Could not deliver done event", fields)
	}
	return outcome
}

func (o *Orchestrator) outcome(stage Stage, t *turn) Outcome {
	return Outcome{
		Stage:     stage,
		SessionID: t.rc.SessionID,
		Intent:    t.intent,
		Chunks:    t.state.Chunks(),
		Titles:    t.state.Titles(),
		Resolved:  t.state.ResolvedCount(),
	}
}

func (o *Orchestrator) fields(t *turn, extra map[string]interface{}) map[string]interface{} {
	f := map[string]interface{}{
		"request_id": t.req.RequestID,
	}
	if t.rc.SessionID != uuid.Nil {
		f["session_id"] = t.rc.SessionID.String()
		f["user_id"] = t.rc.UserID.String()
	}
	if t.intent != "" {
		f["intent"] = t.intent.String()
	}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// Drain refuses further turns and waits for detached persistence started by
// finished ones.
func (o *Orchestrator) Drain(ctx context.Context) error {
	o.mu.Lock()
	o.draining = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wrapCtx attributes failures caused by the request context to the client or
// to the ceiling rather than to the stage's own kind.
func wrapCtx(ctx context.Context, kind failure.Kind, stage string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return failure.Wrap(failure.KindClientGone, stage, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return failure.Wrap(failure.KindTimeout, stage, err)
	}
	return failure.Wrap(kind, stage, err)
}
