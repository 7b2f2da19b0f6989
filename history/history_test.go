package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/mean-org/meanfi-txcore/txcache"
)

// A nil db disables persistence: the store must behave as a silent no-op so
// sessions without a database never branch on it.
func TestNilDatabaseIsNoOp(t *testing.T) {
	store := NewStore(nil)

	assert.NoError(t, store.Migrate())
	assert.NoError(t, store.Save(&txcache.TxConfirmationInfo{
		Signature:          "sig",
		TxInfoFetchStatus:  txcache.StatusFetched,
		TimestampCompleted: time.Now(),
	}))

	records, err := store.Recent(10)
	assert.NoError(t, err)
	assert.Nil(t, records)

	record, err := store.BySignature("sig")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestSaveIgnoresEmptyInput(t *testing.T) {
	store := NewStore(nil)
	assert.NoError(t, store.Save(nil))
	assert.NoError(t, store.Save(&txcache.TxConfirmationInfo{}))
}

func TestRecordTableName(t *testing.T) {
	assert.Equal(t, "transaction_history", Record{}.TableName())
}

// Drivers may wrap the record-not-found sentinel; the absence check must
// see through the chain so a lookup miss creates a row instead of erroring.
func TestNotFoundUnwrapsErrorChain(t *testing.T) {
	assert.True(t, notFound(gorm.ErrRecordNotFound))
	assert.True(t, notFound(fmt.Errorf("scan row: %w", gorm.ErrRecordNotFound)))
	assert.False(t, notFound(errors.New("connection reset")))
	assert.False(t, notFound(nil))
}
