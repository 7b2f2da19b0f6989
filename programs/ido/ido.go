// Package ido builds token-sale participation transactions (deposit and
// withdraw against the sale pool) and prices them with the sale's bonding
// curves.
package ido

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultProgramID is the sale program this client targets by default.
const DefaultProgramID = "5DXoYSQxaJzQ1W4LqSq2nWZ12PvFsb4FHo4xWgSrchVH"

var (
	systemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	tokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

var (
	seedPool    = []byte("ido_pool")
	seedDeposit = []byte("ido_deposit")
)

func discriminator(name string) []byte {
	hash := sha256.Sum256([]byte("global:" + name))
	return hash[:8]
}

var (
	discDeposit  = discriminator("deposit")
	discWithdraw = discriminator("withdraw")
)

type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
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

// PoolState mirrors the sale pool account.
// Layout: discriminator(8) + authority(32) + usdc_deposited(8) +
// start_ts(8) + duration(8)
type PoolState struct {
	Authority     solana.PublicKey
	USDCDeposited uint64
	StartTS       uint64
	Duration      uint64
}

// DerivePoolPDA derives the sale pool address for its authority.
func (c *Client) DerivePoolPDA(authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{seedPool, authority.Bytes()},
		c.programID,
	)
}

// DeriveDepositPDA derives a wallet's deposit record under the pool.
func (c *Client) DeriveDepositPDA(pool, depositor solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{seedDeposit, pool.Bytes(), depositor.Bytes()},
		c.programID,
	)
}

// GetPoolState fetches and decodes the sale pool account.
func (c *Client) GetPoolState(ctx context.Context, pool solana.PublicKey) (*PoolState, error) {
	accountInfo, err := c.rpc.GetAccountInfo(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool account: %w", err)
	}
	if accountInfo == nil || accountInfo.Value == nil {
		return nil, fmt.Errorf("pool account not found")
	}

	data := accountInfo.Value.Data.GetBinary()
	if len(data) < 64 {
		return nil, fmt.Errorf("pool account data too short: %d bytes", len(data))
	}

	decoder := bin.NewBinDecoder(data[8:])
	var state PoolState
	authority, err := decoder.ReadNBytes(32)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pool authority: %w", err)
	}
	state.Authority = solana.PublicKeyFromBytes(authority)
	if state.USDCDeposited, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to decode pool deposits: %w", err)
	}
	if state.StartTS, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to decode pool start: %w", err)
	}
	if state.Duration, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to decode pool duration: %w", err)
	}
	return &state, nil
}

// BuildDeposit creates an unsigned deposit of amount (USDC base units) into
// the sale pool.
func (c *Client) BuildDeposit(
	ctx context.Context,
	depositor, depositorToken, pool, poolVault solana.PublicKey,
	amount uint64,
) (*solana.Transaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("deposit amount must be greater than zero")
	}
	depositPDA, _, err := c.DeriveDepositPDA(pool, depositor)
	if err != nil {
		return nil, fmt.Errorf("failed to derive deposit PDA: %w", err)
	}

	data := append([]byte{}, discDeposit...)
	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, amount)
	data = append(data, amountBytes...)

	accounts := []*solana.AccountMeta{
		solana.Meta(pool).WRITE(),
		solana.Meta(poolVault).WRITE(),
		solana.Meta(depositPDA).WRITE(),
		solana.Meta(depositorToken).WRITE(),
		solana.Meta(depositor).SIGNER().WRITE(),
		solana.Meta(tokenProgramID),
		solana.Meta(systemProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, data), depositor)
}

// BuildWithdraw creates an unsigned withdrawal of amount from the
// depositor's sale position.
func (c *Client) BuildWithdraw(
	ctx context.Context,
	depositor, depositorToken, pool, poolVault solana.PublicKey,
	amount uint64,
) (*solana.Transaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("withdraw amount must be greater than zero")
	}
	depositPDA, _, err := c.DeriveDepositPDA(pool, depositor)
	if err != nil {
		return nil, fmt.Errorf("failed to derive deposit PDA: %w", err)
	}

	data := append([]byte{}, discWithdraw...)
	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, amount)
	data = append(data, amountBytes...)

	accounts := []*solana.AccountMeta{
		solana.Meta(pool).WRITE(),
		solana.Meta(poolVault).WRITE(),
		solana.Meta(depositPDA).WRITE(),
		solana.Meta(depositorToken).WRITE(),
		solana.Meta(depositor).SIGNER(),
		solana.Meta(tokenProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, data), depositor)
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
