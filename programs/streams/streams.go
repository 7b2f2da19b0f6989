// Package streams builds money-streaming program transactions: create a
// stream, add funds to its treasury, close it. The streaming math itself is
// closed-form; see rate.go.
package streams

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultProgramID is the mainnet money-streaming program. Override through
// Config for devnet deployments.
const DefaultProgramID = "MSPCUMbLfy2MeT6geLMMzrUkv1Tx88XRApaVRdyxTuu"

var (
	systemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	tokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

// PDA seeds
var (
	seedStream = []byte("stream")
	seedVault  = []byte("stream_vault")
)

func discriminator(name string) []byte {
	hash := sha256.Sum256([]byte("global:" + name))
	return hash[:8]
}

var (
	discCreateStream = discriminator("create_stream")
	discAddFunds     = discriminator("add_funds")
	discCloseStream  = discriminator("close_stream")
)

type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

type Config struct {
	ProgramID string
}

type Client struct {
	rpc       RPC
	programID solana.PublicKey
}

func NewClient(rpcClient RPC, config Config) (*Client, error) {
	if config.ProgramID == "" {
		config.ProgramID = DefaultProgramID
	}
	programID, err := solana.PublicKeyFromBase58(config.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}
	return &Client{rpc: rpcClient, programID: programID}, nil
}

// CreateStreamParams - arguments for a new payment stream
type CreateStreamParams struct {
	Treasurer        solana.PublicKey
	Beneficiary      solana.PublicKey
	Mint             solana.PublicKey
	TreasurerToken   solana.PublicKey
	StreamID         uint64
	RateAmount       uint64 // token units streamed per interval
	RateInterval     uint64 // interval length in seconds
	AllocationUnits  uint64 // total units allocated to the stream
	CliffUnits       uint64 // units released up front at start
	StartUnixSeconds uint64
}

// DeriveStreamPDA derives the stream account address.
func (c *Client) DeriveStreamPDA(treasurer solana.PublicKey, streamID uint64) (solana.PublicKey, uint8, error) {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, streamID)
	return solana.FindProgramAddress(
		[][]byte{seedStream, treasurer.Bytes(), idBytes},
		c.programID,
	)
}

// DeriveVaultPDA derives the stream's token vault address.
func (c *Client) DeriveVaultPDA(stream solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{seedVault, stream.Bytes()},
		c.programID,
	)
}

// BuildCreateStream creates an unsigned create_stream transaction.
func (c *Client) BuildCreateStream(ctx context.Context, params CreateStreamParams) (*solana.Transaction, error) {
	if params.RateInterval == 0 {
		return nil, fmt.Errorf("rate interval must be greater than zero")
	}
	streamPDA, _, err := c.DeriveStreamPDA(params.Treasurer, params.StreamID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stream PDA: %w", err)
	}
	vaultPDA, _, err := c.DeriveVaultPDA(streamPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault PDA: %w", err)
	}

	// Arg layout: disc(8) + stream_id(8) + rate_amount(8) + rate_interval(8)
	// + allocation(8) + cliff(8) + start_ts(8), all little-endian
	data := append([]byte{}, discCreateStream...)
	for _, v := range []uint64{
		params.StreamID,
		params.RateAmount,
		params.RateInterval,
		params.AllocationUnits,
		params.CliffUnits,
		params.StartUnixSeconds,
	} {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		data = append(data, b...)
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(streamPDA).WRITE(),
		solana.Meta(vaultPDA).WRITE(),
		solana.Meta(params.TreasurerToken).WRITE(),
		solana.Meta(params.Mint),
		solana.Meta(params.Beneficiary),
		solana.Meta(params.Treasurer).SIGNER().WRITE(),
		solana.Meta(tokenProgramID),
		solana.Meta(systemProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, data), params.Treasurer)
}

// BuildAddFunds tops up an existing stream's vault.
func (c *Client) BuildAddFunds(
	ctx context.Context,
	treasurer, treasurerToken solana.PublicKey,
	streamID uint64,
	amount uint64,
) (*solana.Transaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	streamPDA, _, err := c.DeriveStreamPDA(treasurer, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stream PDA: %w", err)
	}
	vaultPDA, _, err := c.DeriveVaultPDA(streamPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault PDA: %w", err)
	}

	data := append([]byte{}, discAddFunds...)
	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, amount)
	data = append(data, amountBytes...)

	accounts := []*solana.AccountMeta{
		solana.Meta(streamPDA).WRITE(),
		solana.Meta(vaultPDA).WRITE(),
		solana.Meta(treasurerToken).WRITE(),
		solana.Meta(treasurer).SIGNER().WRITE(),
		solana.Meta(tokenProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, data), treasurer)
}

// BuildCloseStream closes a stream, returning unvested funds to the
// treasurer and vested funds to the beneficiary.
func (c *Client) BuildCloseStream(
	ctx context.Context,
	treasurer, treasurerToken, beneficiaryToken solana.PublicKey,
	streamID uint64,
) (*solana.Transaction, error) {
	streamPDA, _, err := c.DeriveStreamPDA(treasurer, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stream PDA: %w", err)
	}
	vaultPDA, _, err := c.DeriveVaultPDA(streamPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(streamPDA).WRITE(),
		solana.Meta(vaultPDA).WRITE(),
		solana.Meta(treasurerToken).WRITE(),
		solana.Meta(beneficiaryToken).WRITE(),
		solana.Meta(treasurer).SIGNER().WRITE(),
		solana.Meta(tokenProgramID),
		solana.Meta(systemProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, discCloseStream), treasurer)
}

func (c *Client) buildTransaction(ctx context.Context, instruction solana.Instruction, payer solana.PublicKey) (*solana.Transaction, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}
