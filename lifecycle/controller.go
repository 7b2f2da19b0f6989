package lifecycle

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/mean-org/meanfi-txcore/confirm"
	"github.com/mean-org/meanfi-txcore/txcache"
	"github.com/mean-org/meanfi-txcore/txstate"
)

// DefaultFeeLamports is the fee budget assumed when a request does not
// carry its own estimate.
const DefaultFeeLamports uint64 = 10_000

// ErrCancelled is returned by Run when cancellation was observed between
// stages. The in-flight stage itself is never aborted.
var ErrCancelled = errors.New("transaction attempt cancelled")

// Connection is the slice of the RPC client the controller uses.
// *rpc.Client satisfies it.
type Connection interface {
	SendEncodedTransaction(ctx context.Context, encodedTx string) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
}

// BuildFunc produces the unsigned transaction for one attempt. It is bound
// by the view to a program client and may perform RPC reads.
type BuildFunc func(ctx context.Context) (*solana.Transaction, error)

// Display holds the user-facing strings attached to a request's
// confirmation entry.
type Display struct {
	LoadingTitle            string
	LoadingMessage          string
	CompletedTitle          string
	CompletedMessage        string
	CompletedMessageTimeout time.Duration
}

// Request is everything one view supplies to run the pipeline: a build
// function, an operation tag, display strings and confirmation settings.
// The state machine itself is shared, never reimplemented per view.
type Request struct {
	Build         BuildFunc
	OperationType txcache.OperationType
	Display       Display

	// Finality is the commitment level the confirmation waits for.
	// Defaults to confirmed.
	Finality rpc.CommitmentType

	// FeeLamports is the estimated fee checked against the wallet's native
	// balance before building. Zero disables the check.
	FeeLamports uint64

	// ConfirmInline polls the confirmation once within the run instead of
	// handing off to the async watcher.
	ConfirmInline bool
}

// Result reports the terminal phase of one attempt. Err carries the
// underlying cause for diagnostics; it is never a panic and failure phases
// are the contract, not the error value.
type Result struct {
	Phase     txstate.Operation
	Signature string
	Err       error
}

type Opts struct {
	Wallet  Wallet
	Conn    Connection
	Status  *txstate.Store
	Watcher *confirm.Watcher // optional; nil forces inline confirmation
	Logger  *slog.Logger
}

// Controller runs the four-stage transaction pipeline: build, sign,
// broadcast, confirm. Every stage transition is reported to the status
// store; terminal states hand off to the confirmation subsystem. There is
// no automatic retry: every failure ends the attempt and a manual retry
// re-runs the whole pipeline.
type Controller struct {
	wallet  Wallet
	conn    Connection
	status  *txstate.Store
	watcher *confirm.Watcher
	logger  *slog.Logger
}

func NewController(opts Opts) *Controller {
	if opts.Status == nil {
		opts.Status = txstate.NewStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		wallet:  opts.Wallet,
		conn:    opts.Conn,
		status:  opts.Status,
		watcher: opts.Watcher,
		logger:  opts.Logger.With("component", "tx-lifecycle"),
	}
}

// Status exposes the store the controller reports into.
func (c *Controller) Status() *txstate.Store {
	return c.status
}

// Run executes one attempt. Cancellation of ctx is cooperative: it is
// checked between stages only, so an in-flight sign or broadcast call runs
// to completion, but later stages and their side effects are skipped.
func (c *Controller) Run(ctx context.Context, req Request) Result {
	log := &transcript{}

	// Preconditions. A missing wallet or build function is fatal for the
	// attempt and is never retried automatically.
	if c.wallet == nil || !c.wallet.Connected() || c.wallet.PublicKey() == nil || req.Build == nil {
		log.fail(StagePrecondition, "wallet not connected or no input", nil)
		c.status.Set(txstate.TransactionStart, txstate.WalletNotFound)
		log.flush(c.logger, "transaction attempt aborted: wallet not found", false)
		return Result{Phase: txstate.WalletNotFound, Err: errors.New("wallet not connected")}
	}
	payer := *c.wallet.PublicKey()

	// Business precondition: the wallet must cover the network fee. An
	// expected, user-correctable condition, so it logs at warning level.
	if req.FeeLamports > 0 {
		balance, err := c.conn.GetBalance(ctx, payer, rpc.CommitmentConfirmed)
		if err == nil && balance != nil && balance.Value < req.FeeLamports {
			log.fail(StagePrecondition, fmt.Sprintf("insufficient balance for fee: have %d need %d", balance.Value, req.FeeLamports), nil)
			c.status.Set(txstate.TransactionStart, txstate.TransactionStartFailure)
			log.flush(c.logger, "transaction attempt aborted: insufficient balance", true)
			return Result{Phase: txstate.TransactionStartFailure, Err: errors.New("insufficient balance for network fee")}
		}
	}

	// Stage 1: build.
	c.status.Set(txstate.TransactionStart, txstate.InitTransaction)
	tx, err := req.Build(ctx)
	if err != nil || tx == nil {
		if err == nil {
			err = errors.New("build function returned no transaction")
		}
		log.fail(StageBuild, "transaction build failed", err)
		c.status.Set(txstate.InitTransaction, txstate.InitTransactionFailure)
		log.flush(c.logger, "transaction build failed", false)
		return Result{Phase: txstate.InitTransactionFailure, Err: err}
	}
	log.add(StageBuild, fmt.Sprintf("built transaction with %d instruction(s)", len(tx.Message.Instructions)))

	if err := ctx.Err(); err != nil {
		return c.cancelled(log, err)
	}

	// Stage 2: sign, then serialize. Serialization failures are a distinct
	// sub-case: signing succeeded but the result cannot be transmitted.
	c.status.Set(txstate.InitTransactionSuccess, txstate.SignTransaction)
	if err := c.wallet.SignTransaction(ctx, tx); err != nil {
		log.fail(StageSign, "wallet rejected signing", err)
		c.status.Set(txstate.SignTransaction, txstate.SignTransactionFailure)
		log.flush(c.logger, "transaction signing rejected", true)
		return Result{Phase: txstate.SignTransactionFailure, Err: err}
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		log.fail(StageSign, "signed transaction failed to serialize", err)
		c.status.Set(txstate.SignTransaction, txstate.SignTransactionFailure)
		log.flush(c.logger, "signed transaction failed to serialize", false)
		return Result{Phase: txstate.SignTransactionFailure, Err: err}
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	log.add(StageSign, fmt.Sprintf("signed by %s", payer))

	if err := ctx.Err(); err != nil {
		return c.cancelled(log, err)
	}

	// Stage 3: broadcast.
	c.status.Set(txstate.SignTransactionSuccess, txstate.SendTransaction)
	sig, err := c.conn.SendEncodedTransaction(ctx, encoded)
	if err != nil {
		// The encoded transaction goes into the transcript so a rejected
		// broadcast can be replayed against the RPC for diagnosis.
		log.fail(StageBroadcast, "encoded transaction: "+encoded, err)
		c.status.Set(txstate.SendTransaction, txstate.SendTransactionFailure)
		log.flush(c.logger, "transaction broadcast rejected", false)
		return Result{Phase: txstate.SendTransactionFailure, Err: err}
	}
	signature := sig.String()
	log.add(StageBroadcast, "signature "+signature)

	if err := ctx.Err(); err != nil {
		// The broadcast already happened; only the confirmation side
		// effects are skipped.
		c.logger.Warn("transaction attempt cancelled after broadcast", "signature", signature)
		return Result{Phase: c.status.Status().Current, Signature: signature, Err: ErrCancelled}
	}

	// Stage 4: confirm.
	c.status.Set(txstate.SendTransactionSuccess, txstate.ConfirmTransaction)
	finality := req.Finality
	if finality == "" {
		finality = rpc.CommitmentConfirmed
	}

	if c.watcher != nil && !req.ConfirmInline {
		// Hand off to the async watcher and leave the store at
		// TransactionFinished optimistically; the watcher reports the real
		// outcome through the cache and the event bus.
		c.status.Set(txstate.ConfirmTransaction, txstate.TransactionFinished)
		c.watcher.Enqueue(&txcache.TxConfirmationInfo{
			Signature:               signature,
			Finality:                finality,
			OperationType:           req.OperationType,
			TxInfoFetchStatus:       txcache.StatusFetching,
			LoadingTitle:            req.Display.LoadingTitle,
			LoadingMessage:          req.Display.LoadingMessage,
			CompletedTitle:          req.Display.CompletedTitle,
			CompletedMessage:        req.Display.CompletedMessage,
			CompletedMessageTimeout: req.Display.CompletedMessageTimeout,
		})
		return Result{Phase: txstate.TransactionFinished, Signature: signature}
	}

	status, err := c.conn.GetSignatureStatuses(ctx, true, sig)
	if err != nil || status == nil || len(status.Value) == 0 || status.Value[0] == nil ||
		status.Value[0].Err != nil || !confirm.CommitmentReached(status.Value[0].ConfirmationStatus, finality) {
		if err == nil {
			err = errors.New("transaction not confirmed at requested commitment")
		}
		log.fail(StageConfirm, "inline confirmation failed", err)
		c.status.Set(txstate.ConfirmTransaction, txstate.ConfirmTransactionFailure)
		log.flush(c.logger, "transaction confirmation failed", true)
		return Result{Phase: txstate.ConfirmTransactionFailure, Signature: signature, Err: err}
	}

	log.add(StageConfirm, "confirmed at "+string(finality))
	c.status.Set(txstate.ConfirmTransactionSuccess, txstate.TransactionFinished)
	return Result{Phase: txstate.TransactionFinished, Signature: signature}
}

func (c *Controller) cancelled(log *transcript, cause error) Result {
	current := c.status.Status().Current
	log.fail(StagePrecondition, "cancellation observed between stages", cause)
	c.logger.Warn("transaction attempt cancelled", "phase", string(current))
	return Result{Phase: current, Err: ErrCancelled}
}
