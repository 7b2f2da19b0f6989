package txcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(sig, title string) *TxConfirmationInfo {
	return &TxConfirmationInfo{
		Signature:         sig,
		OperationType:     OpTransfer,
		TxInfoFetchStatus: StatusFetching,
		CompletedTitle:    title,
	}
}

func TestAddFirstWriteWins(t *testing.T) {
	cache := NewCache()
	t1 := time.Now()
	t2 := t1.Add(time.Minute)

	stored := cache.Add("sig-1", entry("sig-1", "first"), t1)
	require.NotNil(t, stored)
	assert.Equal(t, t1, stored.Timestamp)

	// duplicate insert is a silent no-op
	assert.Nil(t, cache.Add("sig-1", entry("sig-1", "second"), t2))

	got := cache.Get("sig-1")
	require.NotNil(t, got)
	assert.Equal(t, "first", got.CompletedTitle)
	assert.Equal(t, t1, got.Timestamp)
}

func TestAddRejectsEmptyInput(t *testing.T) {
	cache := NewCache()

	assert.Nil(t, cache.Add("", entry("sig", ""), time.Now()))
	assert.Nil(t, cache.Add("sig", nil, time.Now()))
	assert.Nil(t, cache.Add("sig", entry("", ""), time.Now()))
	assert.Equal(t, 0, cache.Len())
}

func TestUpdateRequiresExistence(t *testing.T) {
	cache := NewCache()

	assert.False(t, cache.Update("missing", entry("missing", "x")))
	assert.Nil(t, cache.Get("missing"))

	cache.Add("sig-1", entry("sig-1", "before"), time.Now())
	assert.True(t, cache.Update("sig-1", entry("sig-1", "after")))
	assert.Equal(t, "after", cache.Get("sig-1").CompletedTitle)
}

func TestDelete(t *testing.T) {
	cache := NewCache()
	cache.Add("sig-1", entry("sig-1", ""), time.Now())

	assert.True(t, cache.Delete("sig-1"))
	assert.False(t, cache.Delete("sig-1"))
	assert.Nil(t, cache.Get("sig-1"))
}

func TestClear(t *testing.T) {
	cache := NewCache()
	cache.Add("sig-1", entry("sig-1", ""), time.Now())
	cache.Add("sig-2", entry("sig-2", ""), time.Now())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.History())
}

func TestHistoryMostRecentFirst(t *testing.T) {
	cache := NewCache()
	base := time.Now()
	for i, sig := range []string{"sig-a", "sig-b", "sig-c"} {
		cache.Add(sig, entry(sig, ""), base.Add(time.Duration(i)*time.Second))
	}
	// deletion keeps the remaining order intact
	cache.Delete("sig-b")

	history := cache.History()
	require.Len(t, history, 2)
	assert.Equal(t, "sig-c", history[0].Signature)
	assert.Equal(t, "sig-a", history[1].Signature)
}

func TestMarkCompleted(t *testing.T) {
	cache := NewCache()
	cache.Add("sig-1", entry("sig-1", ""), time.Now())

	at := time.Now()
	updated := cache.MarkCompleted("sig-1", StatusFetched, at)
	require.NotNil(t, updated)
	assert.Equal(t, StatusFetched, updated.TxInfoFetchStatus)
	assert.Equal(t, at, updated.TimestampCompleted)

	assert.Nil(t, cache.MarkCompleted("missing", StatusError, at))
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	cache := NewCache()
	cache.Add("sig-1", entry("sig-1", "original"), time.Now())

	added := cache.Add("sig-2", entry("sig-2", "other"), time.Now())
	added.CompletedTitle = "mutated"
	assert.Equal(t, "other", cache.Get("sig-2").CompletedTitle)

	got := cache.Get("sig-1")
	got.CompletedTitle = "mutated"
	assert.Equal(t, "original", cache.Get("sig-1").CompletedTitle)

	done := cache.MarkCompleted("sig-1", StatusFetched, time.Now())
	done.CompletedTitle = "mutated"
	done.TxInfoFetchStatus = StatusError
	assert.Equal(t, "original", cache.Get("sig-1").CompletedTitle)
	assert.Equal(t, StatusFetched, cache.Get("sig-1").TxInfoFetchStatus)

	history := cache.History()
	require.Len(t, history, 2)
	history[0].Signature = "overwritten"
	assert.Equal(t, "sig-2", cache.History()[0].Signature)
}
