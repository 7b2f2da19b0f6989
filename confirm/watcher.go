package confirm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/mean-org/meanfi-txcore/events"
	"github.com/mean-org/meanfi-txcore/history"
	"github.com/mean-org/meanfi-txcore/notify"
	"github.com/mean-org/meanfi-txcore/txcache"
)

// Event names emitted on the session event bus. The payload is always the
// *txcache.TxConfirmationInfo of the transaction that reached a terminal
// confirmation state.
const (
	EventTxConfirmSuccess = "TxConfirmSuccess"
	EventTxConfirmTimeout = "TxConfirmTimeout"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 60 * time.Second
)

// StatusClient is the slice of the RPC connection the watcher polls.
// *rpc.Client satisfies it.
type StatusClient interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

type Opts struct {
	Conn     StatusClient
	Cache    *txcache.Cache
	Events   *events.Emitter
	Notifier notify.Notifier
	History  *history.Store

	// RefreshAccounts is invoked after every confirmation outcome, success
	// or timeout, because balances may have changed regardless of local
	// confirmation knowledge. Optional.
	RefreshAccounts func(ctx context.Context)

	PollInterval time.Duration
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Watcher tracks submitted transactions to finality without blocking the
// caller. Outcomes are communicated through the cache, notifications and
// the event bus; Enqueue never returns an error.
type Watcher struct {
	conn     StatusClient
	cache    *txcache.Cache
	events   *events.Emitter
	notifier notify.Notifier
	hist     *history.Store
	refresh  func(ctx context.Context)

	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
}

func NewWatcher(opts Opts) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLog(opts.Logger)
	}
	if opts.History == nil {
		opts.History = history.NewStore(nil)
	}
	return &Watcher{
		conn:     opts.Conn,
		cache:    opts.Cache,
		events:   opts.Events,
		notifier: opts.Notifier,
		hist:     opts.History,
		refresh:  opts.RefreshAccounts,
		interval: opts.PollInterval,
		timeout:  opts.Timeout,
		logger:   opts.Logger.With("component", "confirm-watcher"),
		quit:     make(chan struct{}),
	}
}

// Enqueue registers info in the cache (idempotent, first write wins), raises
// a pending notification and starts the asynchronous poll for its signature.
// A signature that is already being watched is ignored entirely, so each
// signature still gets exactly one terminal outcome.
func (w *Watcher) Enqueue(info *txcache.TxConfirmationInfo) {
	if info == nil || info.Signature == "" {
		w.logger.Warn("dropping confirmation request without signature")
		return
	}
	if info.TxInfoFetchStatus == "" {
		info.TxInfoFetchStatus = txcache.StatusFetching
	}
	if w.cache.Add(info.Signature, info, time.Now()) == nil {
		w.logger.Debug("signature already being watched", "signature", info.Signature)
		return
	}

	w.notifier.Open(notify.Notification{
		Key:         notify.NewKey(),
		Type:        notify.Info,
		Title:       info.LoadingTitle,
		Description: info.LoadingMessage,
	})

	w.wg.Add(1)
	go w.watch(info.Signature)
}

// Wait blocks until every enqueued confirmation has reached a terminal
// state. Intended for shutdown and tests.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

// Stop resolves every in-flight watch through the unconfirmed branch on its
// next poll cycle instead of waiting out the full timeout. Safe to call more
// than once; follow with Wait to drain the goroutines.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

func (w *Watcher) watch(signature string) {
	defer w.wg.Done()

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		w.logger.Error("invalid signature enqueued", "signature", signature, "err", err)
		w.finish(signature, false)
		return
	}

	info := w.cache.Get(signature)
	finality := rpc.CommitmentConfirmed
	if info != nil && info.Finality != "" {
		finality = info.Finality
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	for {
		status, err := w.conn.GetSignatureStatuses(ctx, true, sig)
		if err == nil && status != nil && len(status.Value) > 0 && status.Value[0] != nil {
			st := status.Value[0]
			if st.Err != nil {
				// The transaction landed but its program errored. Local
				// confirmation failed; the transfer itself is reported as
				// unverified, not as failed.
				w.logger.Warn("transaction returned on-chain error", "signature", signature, "err", st.Err)
				w.finish(signature, false)
				return
			}
			if CommitmentReached(st.ConfirmationStatus, finality) {
				w.finish(signature, true)
				return
			}
		}

		timer := time.NewTimer(w.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.finish(signature, false)
			return
		case <-w.quit:
			timer.Stop()
			w.finish(signature, false)
			return
		case <-timer.C:
		}
	}
}

// finish performs the terminal bookkeeping exactly once per signature:
// cache stamp, notification, event emission, history record, account
// refresh.
func (w *Watcher) finish(signature string, confirmed bool) {
	status := txcache.StatusFetched
	if !confirmed {
		status = txcache.StatusError
	}
	info := w.cache.MarkCompleted(signature, status, time.Now())
	if info == nil {
		info = &txcache.TxConfirmationInfo{
			Signature:          signature,
			TxInfoFetchStatus:  status,
			TimestampCompleted: time.Now(),
		}
	}

	if confirmed {
		w.notifier.Open(notify.Notification{
			Key:         notify.NewKey(),
			Type:        notify.Success,
			Title:       info.CompletedTitle,
			Description: info.CompletedMessage,
			Duration:    info.CompletedMessageTimeout,
		})
		w.events.Emit(EventTxConfirmSuccess, info)
	} else {
		// Framed as "may still complete" rather than a hard error: the
		// transaction can land after we stop watching.
		w.notifier.Open(notify.Notification{
			Key:         notify.NewKey(),
			Type:        notify.Warning,
			Title:       "Transaction not confirmed yet",
			Description: "The transaction may still complete. Check the explorer for its final status.",
		})
		w.events.Emit(EventTxConfirmTimeout, info)
	}

	if err := w.hist.Save(info); err != nil {
		w.logger.Error("failed to persist transaction history", "signature", signature, "err", err)
	}
	if w.refresh != nil {
		w.refresh(context.Background())
	}
}

// CommitmentReached reports whether an observed confirmation status
// satisfies the requested commitment level. Levels are ordered: a higher
// level implies the lower level already holds.
func CommitmentReached(status rpc.ConfirmationStatusType, finality rpc.CommitmentType) bool {
	return commitmentRank(rpc.CommitmentType(status)) >= commitmentRank(finality)
}

func commitmentRank(c rpc.CommitmentType) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentConfirmed:
		return 2
	case rpc.CommitmentFinalized:
		return 3
	}
	return 0
}
