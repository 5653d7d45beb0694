package qrflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"torresegura/internal/apiclient"
	"torresegura/internal/models"
)

type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateDecoded   State = "decoded"
	StateVerifying State = "verifying"
	StateVerified  State = "verified"
	StateRejected  State = "rejected"
)

// Reason tells why a scan was rejected.
type Reason string

const (
	ReasonInvalidCode      Reason = "invalid_code"
	ReasonUnsigned         Reason = "unsigned_payload"
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonBackendError     Reason = "backend_error"
	ReasonSessionExpired   Reason = "session_expired"
	ReasonConnectivity     Reason = "connectivity"
)

var (
	// ErrBusy is returned for detections that arrive while a code of the
	// current cycle is being processed or after its result is shown.
	ErrBusy = errors.New("scan already in progress")
	// ErrNotScanning is returned when Detect is called before Start.
	ErrNotScanning = errors.New("scanner is not active")
)

// Verifier checks a signed payload against the backend.
type Verifier interface {
	VerifyQR(ctx context.Context, payload models.QRPayload) (models.Verification, error)
}

// Outcome is the terminal result of one scan cycle.
type Outcome struct {
	State        State
	Reason       Reason
	Message      string
	Payload      models.QRPayload
	Verification models.Verification
}

type Options struct {
	// OnSessionExpired runs once per cycle whose verification was refused
	// because of the session token.
	OnSessionExpired func(ctx context.Context)
	OnTransition     func(from, to State)
	Logger           *slog.Logger
	Tracer           trace.Tracer
}

// Flow drives one scanner through its cycles. It is safe for concurrent
// Detect calls; only the first detection of a cycle is processed.
type Flow struct {
	verifier Verifier
	opts     Options

	mu    sync.Mutex
	state State
	last  Outcome
}

func New(verifier Verifier, opts Options) *Flow {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("torresegura/qrflow")
	}
	return &Flow{verifier: verifier, opts: opts, state: StateIdle}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Last returns the outcome of the most recent finished cycle.
func (f *Flow) Last() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Start arms the scanner. It is a no-op while already scanning.
func (f *Flow) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateIdle:
		f.transition(StateScanning)
		return nil
	case StateScanning:
		return nil
	default:
		return ErrBusy
	}
}

// Reset returns a finished cycle to idle.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateVerified, StateRejected, StateScanning:
		f.transition(StateIdle)
	}
}

// Detect processes the text of a detected code. A well-formed payload
// costs exactly one verification call; anything else is rejected
// without touching the network.
func (f *Flow) Detect(ctx context.Context, raw string) (Outcome, error) {
	f.mu.Lock()
	switch f.state {
	case StateScanning:
		f.transition(StateDecoded)
	case StateIdle:
		f.mu.Unlock()
		return Outcome{}, ErrNotScanning
	default:
		f.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	f.mu.Unlock()

	payload, err := ParsePayload(raw)
	if err != nil {
		reason := ReasonInvalidCode
		if errors.Is(err, errUnsigned) {
			reason = ReasonUnsigned
		}
		f.opts.Logger.Info("scan rejected", "reason", reason)
		return f.finish(Outcome{State: StateRejected, Reason: reason, Message: err.Error()}), nil
	}

	f.mu.Lock()
	f.transition(StateVerifying)
	f.mu.Unlock()

	out := f.verify(ctx, payload)
	if out.Reason == ReasonSessionExpired && f.opts.OnSessionExpired != nil {
		f.opts.OnSessionExpired(ctx)
	}
	return f.finish(out), nil
}

func (f *Flow) verify(ctx context.Context, payload models.QRPayload) Outcome {
	ctx, span := f.opts.Tracer.Start(ctx, "qrflow.verify",
		trace.WithAttributes(attribute.String("visit.id", payload.ID.String())))
	defer span.End()

	out := Outcome{Payload: payload}
	result, err := f.verifier.VerifyQR(ctx, payload)
	switch {
	case err == nil && result.Valid:
		out.State = StateVerified
		out.Verification = result
		out.Message = result.Visitor
	case err == nil:
		out.State = StateRejected
		out.Reason = ReasonInvalidSignature
		out.Verification = result
		out.Message = result.Error
		if out.Message == "" {
			out.Message = "invalid QR code"
		}
	case errors.Is(err, apiclient.ErrTokenInvalid), errors.Is(err, apiclient.ErrNoSession):
		out.State = StateRejected
		out.Reason = ReasonSessionExpired
		out.Message = err.Error()
	case errors.Is(err, apiclient.ErrUnreachable), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		out.State = StateRejected
		out.Reason = ReasonConnectivity
		out.Message = err.Error()
	default:
		out.State = StateRejected
		out.Reason = ReasonBackendError
		out.Message = err.Error()
	}

	span.SetAttributes(attribute.String("qrflow.state", string(out.State)))
	if out.State == StateRejected {
		span.SetAttributes(attribute.String("qrflow.reason", string(out.Reason)))
		span.SetStatus(codes.Error, out.Message)
		f.opts.Logger.Info("scan rejected", "visit_id", payload.ID.String(), "reason", out.Reason, "message", out.Message)
	} else {
		f.opts.Logger.Info("scan verified", "visit_id", payload.ID.String(), "visitor", out.Verification.Visitor)
	}
	return out
}

func (f *Flow) finish(out Outcome) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = out
	f.transition(out.State)
	return out
}

// transition must be called with mu held.
func (f *Flow) transition(to State) {
	from := f.state
	f.state = to
	if f.opts.OnTransition != nil {
		f.opts.OnTransition(from, to)
	}
}
