package session

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/mean-org/meanfi-txcore/confirm"
	"github.com/mean-org/meanfi-txcore/events"
	"github.com/mean-org/meanfi-txcore/history"
	"github.com/mean-org/meanfi-txcore/lifecycle"
	"github.com/mean-org/meanfi-txcore/notify"
	"github.com/mean-org/meanfi-txcore/txcache"
	"github.com/mean-org/meanfi-txcore/txstate"
)

type Opts struct {
	Conn     lifecycle.Connection
	Notifier notify.Notifier
	Logger   *slog.Logger

	// DB enables transaction-history persistence. Nil keeps history
	// in-memory only.
	DB *gorm.DB

	// RefreshAccounts is called after every confirmation outcome.
	RefreshAccounts func()

	PollInterval time.Duration
	Timeout      time.Duration
}

// Session bundles the transaction-lifecycle state for one application
// session: status store, confirmation cache, event bus and async watcher.
// Everything is explicitly constructed and injected, so isolated sessions
// can coexist and tests never share state.
type Session struct {
	Status   *txstate.Store
	Cache    *txcache.Cache
	Events   *events.Emitter
	Watcher  *confirm.Watcher
	History  *history.Store
	Notifier notify.Notifier
	Logger   *slog.Logger

	conn lifecycle.Connection
}

func New(opts Opts) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLog(opts.Logger)
	}

	status := txstate.NewStore()
	cache := txcache.NewCache()
	emitter := events.NewEmitter()
	hist := history.NewStore(opts.DB)

	var refresh func(context.Context)
	if opts.RefreshAccounts != nil {
		refresh = func(context.Context) { opts.RefreshAccounts() }
	}

	watcher := confirm.NewWatcher(confirm.Opts{
		Conn:            opts.Conn,
		Cache:           cache,
		Events:          emitter,
		Notifier:        opts.Notifier,
		History:         hist,
		RefreshAccounts: refresh,
		PollInterval:    opts.PollInterval,
		Timeout:         opts.Timeout,
		Logger:          opts.Logger,
	})

	return &Session{
		Status:   status,
		Cache:    cache,
		Events:   emitter,
		Watcher:  watcher,
		History:  hist,
		Notifier: opts.Notifier,
		Logger:   opts.Logger,
		conn:     opts.Conn,
	}
}

// NewController binds the session's shared pieces into a lifecycle
// controller for one view.
func (s *Session) NewController(wallet lifecycle.Wallet) *lifecycle.Controller {
	return lifecycle.NewController(lifecycle.Opts{
		Wallet:  wallet,
		Conn:    s.conn,
		Status:  s.Status,
		Watcher: s.Watcher,
		Logger:  s.Logger,
	})
}

// OnConfirmSuccess subscribes fn to confirmation-success events. Views call
// this on mount and Off with the returned subscription on unmount.
func (s *Session) OnConfirmSuccess(fn func(*txcache.TxConfirmationInfo)) events.Subscription {
	return s.Events.On(confirm.EventTxConfirmSuccess, func(payload any) {
		if info, ok := payload.(*txcache.TxConfirmationInfo); ok {
			fn(info)
		}
	})
}

// OnConfirmTimeout subscribes fn to confirmation-timeout events.
func (s *Session) OnConfirmTimeout(fn func(*txcache.TxConfirmationInfo)) events.Subscription {
	return s.Events.On(confirm.EventTxConfirmTimeout, func(payload any) {
		if info, ok := payload.(*txcache.TxConfirmationInfo); ok {
			fn(info)
		}
	})
}
