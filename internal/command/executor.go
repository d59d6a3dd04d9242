package command

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/evidence"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
)

const (
	DefaultTimeout         = 5 * time.Second
	DefaultMaxPayloadBytes = 64 << 10
)

// Reducer applies one action to a state.
type Reducer func(state.State, state.Action) state.State

// Result is a successful execution.
type Result struct {
	State state.State
	Audit AuditRecord
}

// Executor runs commands one at a time against caller-supplied states.
// Fields may be replaced after NewExecutor and before first use.
type Executor struct {
	Timeout         time.Duration
	MaxPayloadBytes int
	Reducer         Reducer
	Runner          Runner // nil runs Reducer on a goroutine
	Logger          *log.Logger
	Sink            AuditSink
	Tracer          trace.Tracer
	Now             func() time.Time
}

// NewExecutor returns an executor around state.Apply. Non-positive limits
// fall back to the defaults.
func NewExecutor(timeout time.Duration, maxPayloadBytes int) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Executor{
		Timeout:         timeout,
		MaxPayloadBytes: maxPayloadBytes,
		Reducer:         state.Apply,
		Logger:          log.Default(),
		Sink:            Discard,
		Tracer:          otel.Tracer("github.com/colbychapman3/incident-replay-engine-sub000/internal/command"),
		Now:             time.Now,
	}
}

// Execute validates cmd and hands an encoded copy of st to the Runner, so
// nothing the reducer does can reach the caller's memory. A result that is
// not ready and checked by the deadline is discarded and a timeout error is
// returned.
//
// Cancelling ctx does not abort a running command; only the deadline
// does. ctx is used for tracing.
func (e *Executor) Execute(ctx context.Context, st state.State, cmd Command) (Result, error) {
	ctx, span := e.Tracer.Start(ctx, "command.execute",
		trace.WithAttributes(attribute.String("command.type", string(cmd.Type))))
	defer span.End()

	rec := AuditRecord{
		ID:         uuid.NewString(),
		ActionType: string(cmd.Type),
		Start:      e.Now(),
	}
	if sc := span.SpanContext(); sc.IsValid() {
		rec.TraceID = sc.TraceID().String()
		rec.SpanID = sc.SpanID().String()
	}

	fail := func(cerr *Error) (Result, error) {
		rec.Outcome = Outcome(cerr.Kind)
		rec.Message = cerr.Message
		rec.Duration = e.Now().Sub(rec.Start)
		cerr.Audit = rec
		span.RecordError(cerr)
		span.SetStatus(codes.Error, cerr.Message)
		e.Logger.Printf("[!] command %s %s failed: %v", rec.ID, cmd.Type, cerr)
		e.record(rec)
		return Result{}, cerr
	}

	action, verr := e.validate(cmd)
	if verr != nil {
		return fail(verr)
	}

	before, err := evidence.Canonical(st)
	if err != nil {
		return fail(&Error{Kind: KindInternal, Message: "encode state", Cause: err})
	}
	rec.BeforeDigest = evidence.Sum(before)
	encodedAction, err := msgpack.Marshal(action)
	if err != nil {
		return fail(&Error{Kind: KindInternal, Message: "encode action", Cause: err})
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.Timeout)
	defer cancel()

	data, err := e.runner().Run(runCtx, before, encodedAction)
	if runCtx.Err() != nil {
		return fail(e.timeoutError("no result within %s", runCtx.Err()))
	}
	if err != nil {
		return fail(&Error{Kind: KindInternal, Message: "reducer faulted", Cause: err})
	}
	next, err := decodeState(data)
	if err != nil {
		return fail(&Error{Kind: KindInternal, Message: "decode result", Cause: err})
	}
	if err := state.Validate(next); err != nil {
		return fail(&Error{Kind: KindInternal, Message: "result failed shape check", Cause: err})
	}
	if rec.AfterDigest, err = evidence.Digest(next); err != nil {
		return fail(&Error{Kind: KindInternal, Message: "digest result", Cause: err})
	}

	// decoding and checking a large state can itself outlast the deadline
	if runCtx.Err() != nil || e.Now().Sub(rec.Start) > e.Timeout {
		return fail(e.timeoutError("result ready after %s", context.DeadlineExceeded))
	}

	rec.Outcome = OutcomeOK
	rec.Duration = e.Now().Sub(rec.Start)
	span.SetStatus(codes.Ok, "")
	e.record(rec)
	return Result{State: next, Audit: rec}, nil
}

func (e *Executor) validate(cmd Command) (state.Action, *Error) {
	if !cmd.Type.Known() {
		return state.Action{}, validationError(fmt.Sprintf("unknown action type %q", cmd.Type), nil)
	}
	if len(cmd.Payload) > e.MaxPayloadBytes {
		return state.Action{}, validationError(
			fmt.Sprintf("payload is %d bytes, limit is %d", len(cmd.Payload), e.MaxPayloadBytes), nil)
	}
	if err := validatePayload(cmd.Type, cmd.payloadBytes()); err != nil {
		return state.Action{}, validationError("payload rejected", err)
	}
	action, err := cmd.Action()
	if err != nil {
		return state.Action{}, validationError("payload rejected", err)
	}
	return action, nil
}

func (e *Executor) runner() Runner {
	if e.Runner != nil {
		return e.Runner
	}
	return GoroutineRunner{Reducer: e.Reducer}
}

func (e *Executor) timeoutError(format string, cause error) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf(format, e.Timeout), Cause: cause}
}

func (e *Executor) record(rec AuditRecord) {
	if err := e.Sink.Record(rec); err != nil {
		e.Logger.Printf("[!] audit record %s not stored: %v", rec.ID, err)
	}
}

func newDecoder(data []byte) *msgpack.Decoder {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec
}

func decodeState(data []byte) (state.State, error) {
	var st state.State
	if err := newDecoder(data).Decode(&st); err != nil {
		return state.State{}, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}
