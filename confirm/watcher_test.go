package confirm

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mean-org/meanfi-txcore/events"
	"github.com/mean-org/meanfi-txcore/txcache"
)

type fakeStatusClient struct {
	mu           sync.Mutex
	calls        int
	confirmAfter int // calls returning nothing before reporting confirmed
	status       rpc.ConfirmationStatusType
	onChainErr   any
}

func (f *fakeStatusClient) GetSignatureStatuses(_ context.Context, _ bool, _ ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.confirmAfter {
		return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
	}
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: f.status, Err: f.onChainErr},
		},
	}, nil
}

type counters struct {
	mu        sync.Mutex
	success   int
	timeout   int
	refreshed int
}

func testWatcher(t *testing.T, conn StatusClient, timeout time.Duration) (*Watcher, *txcache.Cache, *counters) {
	t.Helper()
	cache := txcache.NewCache()
	emitter := events.NewEmitter()
	c := &counters{}
	emitter.On(EventTxConfirmSuccess, func(any) {
		c.mu.Lock()
		c.success++
		c.mu.Unlock()
	})
	emitter.On(EventTxConfirmTimeout, func(any) {
		c.mu.Lock()
		c.timeout++
		c.mu.Unlock()
	})
	watcher := NewWatcher(Opts{
		Conn:   conn,
		Cache:  cache,
		Events: emitter,
		RefreshAccounts: func(context.Context) {
			c.mu.Lock()
			c.refreshed++
			c.mu.Unlock()
		},
		PollInterval: 5 * time.Millisecond,
		Timeout:      timeout,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return watcher, cache, c
}

func testInfo(sig string) *txcache.TxConfirmationInfo {
	return &txcache.TxConfirmationInfo{
		Signature:      sig,
		Finality:       rpc.CommitmentConfirmed,
		OperationType:  txcache.OpTransfer,
		CompletedTitle: "Transfer sent",
	}
}

func TestWatcherSuccess(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{confirmAfter: 2, status: rpc.ConfirmationStatusConfirmed}
	watcher, cache, c := testWatcher(t, conn, time.Second)

	watcher.Enqueue(testInfo(sig))
	watcher.Wait()

	assert.Equal(t, 1, c.success)
	assert.Equal(t, 0, c.timeout)
	assert.Equal(t, 1, c.refreshed)

	entry := cache.Get(sig)
	require.NotNil(t, entry)
	assert.Equal(t, txcache.StatusFetched, entry.TxInfoFetchStatus)
	assert.False(t, entry.TimestampCompleted.IsZero())
}

func TestWatcherTimeout(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{confirmAfter: 1 << 30} // never confirms
	watcher, cache, c := testWatcher(t, conn, 25*time.Millisecond)

	watcher.Enqueue(testInfo(sig))
	watcher.Wait()

	assert.Equal(t, 0, c.success)
	assert.Equal(t, 1, c.timeout)
	assert.Equal(t, 1, c.refreshed)
	assert.Equal(t, txcache.StatusError, cache.Get(sig).TxInfoFetchStatus)
}

func TestWatcherTerminalExclusivity(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{status: rpc.ConfirmationStatusFinalized}
	watcher, _, c := testWatcher(t, conn, time.Second)

	watcher.Enqueue(testInfo(sig))
	watcher.Wait()

	// exactly one terminal event, never both, never neither
	assert.Equal(t, 1, c.success+c.timeout)
}

func TestWatcherOnChainErrorIsNotSuccess(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{
		status:     rpc.ConfirmationStatusConfirmed,
		onChainErr: map[string]any{"InstructionError": []any{0, "Custom"}},
	}
	watcher, cache, c := testWatcher(t, conn, time.Second)

	watcher.Enqueue(testInfo(sig))
	watcher.Wait()

	assert.Equal(t, 0, c.success)
	assert.Equal(t, 1, c.timeout)
	assert.Equal(t, txcache.StatusError, cache.Get(sig).TxInfoFetchStatus)
}

func TestWatcherFinalityNotSatisfiedByLowerCommitment(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{status: rpc.ConfirmationStatusProcessed}
	watcher, _, c := testWatcher(t, conn, 30*time.Millisecond)

	info := testInfo(sig)
	info.Finality = rpc.CommitmentFinalized
	watcher.Enqueue(info)
	watcher.Wait()

	assert.Equal(t, 0, c.success)
	assert.Equal(t, 1, c.timeout)
}

func TestWatcherEnqueueIdempotent(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{status: rpc.ConfirmationStatusConfirmed}
	watcher, cache, c := testWatcher(t, conn, time.Second)

	first := testInfo(sig)
	second := testInfo(sig)
	second.CompletedTitle = "Replacement"

	watcher.Enqueue(first)
	watcher.Enqueue(second)
	watcher.Wait()

	// first write wins in the cache
	assert.Equal(t, "Transfer sent", cache.Get(sig).CompletedTitle)
	assert.Equal(t, 1, cache.Len())

	// the duplicate starts no second watch: one terminal event, one refresh
	assert.Equal(t, 1, c.success)
	assert.Equal(t, 0, c.timeout)
	assert.Equal(t, 1, c.refreshed)
}

func TestWatcherStopResolvesPendingWatches(t *testing.T) {
	sig := solana.Signature{}.String()
	conn := &fakeStatusClient{confirmAfter: 1 << 30} // never confirms
	watcher, cache, c := testWatcher(t, conn, time.Minute)

	watcher.Enqueue(testInfo(sig))
	watcher.Stop()
	watcher.Stop() // repeated calls are safe
	watcher.Wait()

	assert.Equal(t, 0, c.success)
	assert.Equal(t, 1, c.timeout)
	assert.Equal(t, txcache.StatusError, cache.Get(sig).TxInfoFetchStatus)
}

func TestCommitmentReached(t *testing.T) {
	tests := []struct {
		status   rpc.ConfirmationStatusType
		finality rpc.CommitmentType
		want     bool
	}{
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed, true},
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed, false},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized, false},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentFinalized, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CommitmentReached(tt.status, tt.finality),
			"CommitmentReached(%s, %s)", tt.status, tt.finality)
	}
}
