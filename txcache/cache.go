package txcache

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// FetchStatus tracks the confirmation fetch state of a submitted transaction.
type FetchStatus string

const (
	StatusFetching FetchStatus = "fetching"
	StatusFetched  FetchStatus = "fetched"
	StatusError    FetchStatus = "error"
)

// OperationType tags which business action produced a transaction. It is
// used for display and history only, never for dispatch.
type OperationType string

const (
	OpTransfer        OperationType = "transfer"
	OpStreamCreate    OperationType = "streamCreate"
	OpStreamAddFunds  OperationType = "streamAddFunds"
	OpStreamClose     OperationType = "streamClose"
	OpTreasuryCreate  OperationType = "treasuryCreate"
	OpMultisigApprove OperationType = "multisigApprove"
	OpMultisigExecute OperationType = "multisigExecute"
	OpIDODeposit      OperationType = "idoDeposit"
	OpIDOWithdraw     OperationType = "idoWithdraw"
	OpAirdropRedeem   OperationType = "airdropRedeem"
)

// TxConfirmationInfo describes one submitted transaction awaiting finality.
type TxConfirmationInfo struct {
	Signature     string
	Finality      rpc.CommitmentType
	OperationType OperationType

	TxInfoFetchStatus FetchStatus

	LoadingTitle            string
	LoadingMessage          string
	CompletedTitle          string
	CompletedMessage        string
	CompletedMessageTimeout time.Duration
	Extras                  map[string]string

	Timestamp          time.Time
	TimestampCompleted time.Time
}

// Cache is an insertion-ordered mapping from signature to confirmation info.
// Entries persist until an explicit Clear; the history view is the reverse
// of insertion order.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*TxConfirmationInfo
	order   []string
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*TxConfirmationInfo)}
}

// Add stores info under sig with the given insertion timestamp, only if no
// entry already exists for that signature, and returns a copy of the stored
// entry. The first write wins: a duplicate Add is a no-op and returns nil,
// which callers must tolerate. An empty sig, nil info, or empty
// info.Signature is also a no-op.
func (c *Cache) Add(sig string, info *TxConfirmationInfo, ts time.Time) *TxConfirmationInfo {
	if sig == "" || info == nil || info.Signature == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[sig]; ok {
		return nil
	}
	stored := *info
	stored.Timestamp = ts
	c.entries[sig] = &stored
	c.order = append(c.order, sig)
	out := stored
	return &out
}

// Get returns a copy of the entry for sig, or nil.
func (c *Cache) Get(sig string) *TxConfirmationInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sig]
	if !ok {
		return nil
	}
	out := *entry
	return &out
}

// Update replaces the entry for sig. It succeeds only if an entry already
// exists; otherwise it is a no-op and returns false.
func (c *Cache) Update(sig string, info *TxConfirmationInfo) bool {
	if sig == "" || info == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[sig]; !ok {
		return false
	}
	stored := *info
	c.entries[sig] = &stored
	return true
}

// MarkCompleted stamps the terminal fetch status and completion time on the
// entry for sig, returning a copy of the updated entry or nil if absent.
func (c *Cache) MarkCompleted(sig string, status FetchStatus, at time.Time) *TxConfirmationInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sig]
	if !ok {
		return nil
	}
	entry.TxInfoFetchStatus = status
	entry.TimestampCompleted = at
	out := *entry
	return &out
}

// Delete removes the entry for sig, reporting whether one existed.
func (c *Cache) Delete(sig string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[sig]; !ok {
		return false
	}
	delete(c.entries, sig)
	for i, s := range c.order {
		if s == sig {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the cache unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*TxConfirmationInfo)
	c.order = nil
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// History returns copies of all entries, most recent first. Mutating the
// result never touches cache state.
func (c *Cache) History() []*TxConfirmationInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*TxConfirmationInfo, 0, len(c.order))
	for i := len(c.order) - 1; i >= 0; i-- {
		entry := *c.entries[c.order[i]]
		out = append(out, &entry)
	}
	return out
}
