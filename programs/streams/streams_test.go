package streams

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct{}

func (fakeRPC) GetLatestBlockhash(_ context.Context, _ rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{}},
	}, nil
}

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(fakeRPC{}, Config{ProgramID: "5DXoYSQxaJzQ1W4LqSq2nWZ12PvFsb4FHo4xWgSrchVH"})
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsInvalidProgramID(t *testing.T) {
	_, err := NewClient(fakeRPC{}, Config{ProgramID: "not-a-key"})
	assert.Error(t, err)
}

func TestDeriveStreamPDAIsDeterministic(t *testing.T) {
	client := testClient(t)
	treasurer := solana.NewWallet().PrivateKey.PublicKey()

	a, _, err := client.DeriveStreamPDA(treasurer, 7)
	require.NoError(t, err)
	b, _, err := client.DeriveStreamPDA(treasurer, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, _, err := client.DeriveStreamPDA(treasurer, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestBuildCreateStream(t *testing.T) {
	client := testClient(t)
	treasurer := solana.NewWallet().PrivateKey.PublicKey()

	tx, err := client.BuildCreateStream(context.Background(), CreateStreamParams{
		Treasurer:        treasurer,
		Beneficiary:      solana.NewWallet().PrivateKey.PublicKey(),
		Mint:             solana.NewWallet().PrivateKey.PublicKey(),
		TreasurerToken:   solana.NewWallet().PrivateKey.PublicKey(),
		StreamID:         1,
		RateAmount:       1_000_000,
		RateInterval:     60,
		AllocationUnits:  100_000_000,
		StartUnixSeconds: 1_700_000_000,
	})
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 1)

	// disc(8) + six u64 args
	assert.Len(t, []byte(tx.Message.Instructions[0].Data), 8+6*8)
	assert.Equal(t, treasurer, tx.Message.AccountKeys[0])
}

func TestBuildCreateStreamRejectsZeroInterval(t *testing.T) {
	client := testClient(t)
	_, err := client.BuildCreateStream(context.Background(), CreateStreamParams{
		Treasurer: solana.NewWallet().PrivateKey.PublicKey(),
	})
	assert.Error(t, err)
}

func TestBuildAddFundsRejectsZeroAmount(t *testing.T) {
	client := testClient(t)
	treasurer := solana.NewWallet().PrivateKey.PublicKey()
	_, err := client.BuildAddFunds(context.Background(), treasurer, treasurer, 1, 0)
	assert.Error(t, err)
}

func TestBuildCloseStream(t *testing.T) {
	client := testClient(t)
	treasurer := solana.NewWallet().PrivateKey.PublicKey()

	tx, err := client.BuildCloseStream(
		context.Background(),
		treasurer,
		solana.NewWallet().PrivateKey.PublicKey(),
		solana.NewWallet().PrivateKey.PublicKey(),
		3,
	)
	require.NoError(t, err)
	assert.Len(t, []byte(tx.Message.Instructions[0].Data), 8)
}
