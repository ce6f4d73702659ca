package mintflow

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dchesque/SolanaBuilder-sub000/wallet"
)

// Ledger is the subset of the chain client the workflow needs. chain.Client
// implements it; tests use a fake.
type Ledger interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	MinimumRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	FeeForMessage(ctx context.Context, tx *solana.Transaction) (uint64, error)
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	Confirm(ctx context.Context, sig solana.Signature, timeout time.Duration) error
	ExplorerURL(signature string) string
}

// Confirmer asks the user to approve an action before it is submitted. The
// fee step uses it instead of silent retries.
type Confirmer interface {
	Confirm(prompt string) bool
}

// AutoConfirm approves everything; used by the CLI --yes flag and tests.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string) bool { return true }

// Sink receives workflow events as usage-log entries. store.Ring satisfies
// it.
type Sink interface {
	Append(kind, message, details string)
}

type nopSink struct{}

func (nopSink) Append(string, string, string) {}

// RetryPolicy bounds in-step retries of transient failures.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy retries transient submission failures twice before
// giving up.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}

// issuanceConfirmTimeout bounds confirmation polling in the issuance step.
// Exceeding it is treated as provisional success, not failure.
const issuanceConfirmTimeout = 30 * time.Second

// Workflow drives the three-step issuance process: fee payment, mint
// creation, metadata attachment. One instance per session; steps are gated
// on the current position and never run concurrently.
type Workflow struct {
	id        string
	ledger    Ledger
	signer    wallet.Signer
	feeCfg    ServiceFeeConfig
	confirmer Confirmer
	retry     RetryPolicy
	sink      Sink
	log       zerolog.Logger

	state State
}

type Option func(*Workflow)

func WithConfirmer(c Confirmer) Option { return func(w *Workflow) { w.confirmer = c } }
func WithRetryPolicy(p RetryPolicy) Option {
	return func(w *Workflow) { w.retry = p }
}
func WithSink(s Sink) Option             { return func(w *Workflow) { w.sink = s } }
func WithLogger(l zerolog.Logger) Option { return func(w *Workflow) { w.log = l } }

// New validates the fee config and creates a workflow in AwaitingFee.
func New(ledger Ledger, signer wallet.Signer, feeCfg ServiceFeeConfig, opts ...Option) (*Workflow, error) {
	if err := feeCfg.Validate(); err != nil {
		return nil, err
	}
	w := &Workflow{
		id:        uuid.NewString(),
		ledger:    ledger,
		signer:    signer,
		feeCfg:    feeCfg,
		confirmer: AutoConfirm{},
		retry:     DefaultRetryPolicy,
		sink:      nopSink{},
		log:       zerolog.Nop(),
		state: State{
			Step:    StepAwaitingFee,
			Message: "Awaiting service fee payment",
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With().Str("workflow", w.id).Logger()
	return w, nil
}

func (w *Workflow) ID() string { return w.id }

// State returns a copy; CreatedToken stays immutable behind it.
func (w *Workflow) State() State {
	s := w.state
	if s.CreatedToken != nil {
		tok := *s.CreatedToken
		s.CreatedToken = &tok
	}
	return s
}

func (w *Workflow) transition(step Step, message string) {
	w.state.Step = step
	w.state.Message = message
	w.log.Info().Str("step", step.String()).Msg(message)
}

// fail records a step failure. Retryable errors return the workflow to the
// failing step's gate so the same step can be invoked again; in-progress
// positions are never left standing because no step function accepts them.
func (w *Workflow) fail(err *StepError) *StepError {
	w.sink.Append("error", err.Detail, err.Error())
	if err.Retryable() {
		switch w.state.Step {
		case StepMinting:
			w.state.Step = StepFeeConfirmed
		case StepAttachingMetadata:
			w.state.Step = StepMintConfirmed
		}
		w.state.Message = err.Detail
		w.log.Warn().Str("kind", err.Kind.String()).Msg(err.Detail)
		return err
	}
	w.transition(StepFailed, err.Detail)
	return err
}

// requireStep gates a step function on the workflow position.
func (w *Workflow) requireStep(want Step) *StepError {
	if w.state.Step != want {
		return stepErr(KindPrecondition,
			"workflow is in step "+w.state.Step.String()+", expected "+want.String(), nil)
	}
	return nil
}

// Run executes the whole flow: fee, issuance, metadata.
func (w *Workflow) Run(ctx context.Context, req IssuanceRequest) error {
	if err := w.PayFee(ctx); err != nil {
		return err
	}
	if err := w.IssueToken(ctx, req); err != nil {
		return err
	}
	return w.AttachMetadata(ctx)
}
