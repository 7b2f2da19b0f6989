// Package transfer builds one-time payment transactions: native SOL via the
// system program and SPL tokens via the token program. Builders are pure
// request factories with no side effects until the transaction is broadcast.
package transfer

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

var tokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// RPC is the slice of the connection the builders read from.
// *rpc.Client satisfies it.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

type Client struct {
	rpc RPC
}

func NewClient(rpcClient RPC) *Client {
	return &Client{rpc: rpcClient}
}

// BuildTransfer creates an unsigned SOL transfer paying lamports from
// `from` to `to`.
func (c *Client) BuildTransfer(ctx context.Context, from, to solana.PublicKey, lamports uint64) (*solana.Transaction, error) {
	if lamports == 0 {
		return nil, fmt.Errorf("transfer amount must be greater than zero")
	}
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	instruction := system.NewTransferInstruction(
		lamports,
		from,
		to,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// BuildTokenTransfer creates an unsigned SPL token transfer using the token
// program's TransferChecked instruction.
func (c *Client) BuildTokenTransfer(
	ctx context.Context,
	owner, source, destination, mint solana.PublicKey,
	amount uint64,
	decimals uint8,
) (*solana.Transaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("transfer amount must be greater than zero")
	}
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	// TransferChecked layout: tag(1) + amount(8 LE) + decimals(1)
	data := make([]byte, 0, 10)
	data = append(data, 12)
	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, amount)
	data = append(data, amountBytes...)
	data = append(data, decimals)

	accounts := []*solana.AccountMeta{
		solana.Meta(source).WRITE(),
		solana.Meta(mint),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(tokenProgramID, accounts, data)},
		recent.Value.Blockhash,
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}
