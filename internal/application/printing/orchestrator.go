package printing

import (
	"context"
	"errors"
	"sync"

	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"go.uber.org/zap"
)

// State is the phase of a print attempt
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCapturing
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCapturing:
		return "capturing"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Notification texts
const (
	SummarySuccess       = "Success"
	DetailSuccess        = "enjoy your label"
	SummaryPrintFailed   = "Print failed"
	SummaryCaptureFailed = "Capture failed"
	SummaryValidation    = "Validation"
	DetailUnknownError   = "unknown error"
)

// ErrOrchestratorClosed is returned for requests made after Close
var ErrOrchestratorClosed = shared.NewDomainError("ORCHESTRATOR_CLOSED", "print orchestrator is closed")

// Validator checks the form before a print attempt. Its error message is
// shown to the user as a validation warning.
type Validator func(ctx context.Context, sel printing.PrintSelection) error

// TransitionObserver is called after every state change
type TransitionObserver func(from, to State)

// Outcome is the result of the last finished attempt
type Outcome struct {
	State   State
	Printer string
	Receipt *Receipt
	Err     error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithValidator adds a form check run after the printer check
func WithValidator(v Validator) Option {
	return func(o *Orchestrator) {
		o.validators = append(o.validators, v)
	}
}

// WithTransitionObserver registers an observer of state changes
func WithTransitionObserver(fn TransitionObserver) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, fn)
	}
}

// Orchestrator runs print attempts one at a time:
// Idle -> Validating -> Capturing -> Submitting -> Success|Failed -> Idle.
// A request made while an attempt is running is rejected with
// ErrPrintInProgress and has no other effect.
type Orchestrator struct {
	selection SelectionReader
	surface   RasterSource
	assembler *PayloadAssembler
	transport PrintTransport
	notifier  Notifier
	logger    *zap.Logger

	validators []Validator
	observers  []TransitionObserver

	mu     sync.Mutex
	state  State
	busy   bool
	closed bool
	last   *Outcome
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	selection SelectionReader,
	surface RasterSource,
	assembler *PayloadAssembler,
	transport PrintTransport,
	notifier Notifier,
	logger *zap.Logger,
	opts ...Option,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if assembler == nil {
		assembler = NewPayloadAssembler(logger)
	}
	o := &Orchestrator{
		selection: selection,
		surface:   surface,
		assembler: assembler,
		transport: transport,
		notifier:  notifier,
		logger:    logger,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether an attempt is between capture and its outcome
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// LastOutcome returns the outcome of the last finished attempt, or nil
func (o *Orchestrator) LastOutcome() *Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil
	}
	out := *o.last
	return &out
}

// Close detaches the orchestrator from its session. An attempt still in
// flight runs to completion but no longer notifies or changes state.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// Print runs one print attempt with the current selection and surface
func (o *Orchestrator) Print(ctx context.Context) (*Receipt, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}

	sel := o.selection.Current()
	dims, err := o.validate(ctx, sel)
	if err != nil {
		o.move(StateValidating, StateIdle)
		o.notify(SeverityWarn, SummaryValidation, validationMessage(err))
		o.logger.Info("print rejected by validation", zap.Error(err))
		return nil, err
	}

	// Snapshot what is printed; later selection changes do not affect it
	printer := *sel.Current

	o.mu.Lock()
	o.busy = true
	o.mu.Unlock()
	defer o.release()

	if !o.move(StateValidating, StateCapturing) {
		return nil, ErrOrchestratorClosed
	}

	payload, err := o.assembler.Assemble(ctx, o.surface, dims, printer)
	if err != nil {
		o.finish(StateCapturing, &Outcome{State: StateFailed, Printer: printer.Name, Err: err})
		o.notify(SeverityError, SummaryCaptureFailed, captureMessage(err))
		return nil, err
	}

	if !o.move(StateCapturing, StateSubmitting) {
		return nil, ErrOrchestratorClosed
	}

	receipt, err := o.transport.Submit(ctx, payload)
	if err != nil {
		o.logger.Warn("print submission failed",
			zap.String("printer", printer.Name),
			zap.Error(err))
		if !errors.Is(err, printing.ErrSubmissionFailed) {
			err = &printing.SubmissionError{Message: err.Error(), Cause: err}
		}
		o.finish(StateSubmitting, &Outcome{State: StateFailed, Printer: printer.Name, Err: err})
		o.notify(SeverityError, SummaryPrintFailed, submissionMessage(err))
		return nil, err
	}

	o.logger.Info("label printed",
		zap.String("printer", printer.Name),
		zap.Float64("width", dims.Width),
		zap.Float64("height", dims.Height))
	o.finish(StateSubmitting, &Outcome{State: StateSuccess, Printer: printer.Name, Receipt: receipt})
	o.notify(SeveritySuccess, SummarySuccess, DetailSuccess)
	return receipt, nil
}

// begin claims the gate. Only an idle, open orchestrator accepts a request.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrOrchestratorClosed
	}
	if o.state != StateIdle {
		state := o.state
		o.mu.Unlock()
		o.logger.Debug("print request ignored, attempt in progress",
			zap.Stringer("state", state))
		return printing.ErrPrintInProgress
	}
	o.state = StateValidating
	o.mu.Unlock()

	o.observe(StateIdle, StateValidating)
	return nil
}

func (o *Orchestrator) validate(ctx context.Context, sel printing.PrintSelection) (printing.PixelSize, error) {
	dims, err := printing.Resolve(sel)
	if err != nil {
		return printing.PixelSize{}, err
	}
	for _, v := range o.validators {
		if err := v(ctx, sel); err != nil {
			return printing.PixelSize{}, err
		}
	}
	return dims, nil
}

// move changes state if the orchestrator is still open and in the expected
// state. It reports whether the transition happened.
func (o *Orchestrator) move(from, to State) bool {
	o.mu.Lock()
	if o.closed || o.state != from {
		o.mu.Unlock()
		return false
	}
	o.state = to
	o.mu.Unlock()

	o.observe(from, to)
	return true
}

// finish records the terminal state of an attempt
func (o *Orchestrator) finish(from State, outcome *Outcome) {
	o.mu.Lock()
	if o.closed || o.state != from {
		o.mu.Unlock()
		return
	}
	o.state = outcome.State
	o.last = outcome
	o.mu.Unlock()

	o.observe(from, outcome.State)
}

// release clears the busy flag and returns to Idle. Deferred once per
// accepted attempt.
func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	from := o.state
	moved := !o.closed && from != StateIdle
	if moved {
		o.state = StateIdle
	}
	o.mu.Unlock()

	if moved {
		o.observe(from, StateIdle)
	}
}

func (o *Orchestrator) notify(severity Severity, summary, detail string) {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed || o.notifier == nil {
		return
	}
	o.notifier.Notify(severity, summary, detail)
}

func (o *Orchestrator) observe(from, to State) {
	for _, fn := range o.observers {
		fn(from, to)
	}
}

func validationMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

func captureMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Cause != nil {
		return de.Cause.Error()
	}
	return err.Error()
}

func submissionMessage(err error) string {
	var se *printing.SubmissionError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		return DetailUnknownError
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DetailUnknownError
}
