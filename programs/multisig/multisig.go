// Package multisig builds treasury-management transactions for the
// multi-signature program: create a treasury, propose a transaction,
// approve it, execute it once the owner threshold is reached.
package multisig

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultProgramID is the multisig program this client targets by default.
const DefaultProgramID = "8sVfWmonJAzAQnS4nYcxv3GBSs4rDpvmniRrApwrh1QK"

// MaxOwners bounds the owner set of one treasury.
const MaxOwners = 10

var systemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

var (
	seedTreasury = []byte("treasury")
	seedProposal = []byte("proposal")
)

func discriminator(name string) []byte {
	hash := sha256.Sum256([]byte("global:" + name))
	return hash[:8]
}

var (
	discCreateTreasury  = discriminator("create_treasury")
	discCreateProposal  = discriminator("create_proposal")
	discApprove         = discriminator("approve")
	discExecuteProposal = discriminator("execute_proposal")
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

// DeriveTreasuryPDA derives the treasury account for a creator and nonce.
func (c *Client) DeriveTreasuryPDA(creator solana.PublicKey, nonce uint64) (solana.PublicKey, uint8, error) {
	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, nonce)
	return solana.FindProgramAddress(
		[][]byte{seedTreasury, creator.Bytes(), nonceBytes},
		c.programID,
	)
}

// DeriveProposalPDA derives the proposal account under a treasury.
func (c *Client) DeriveProposalPDA(treasury solana.PublicKey, proposalID uint64) (solana.PublicKey, uint8, error) {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, proposalID)
	return solana.FindProgramAddress(
		[][]byte{seedProposal, treasury.Bytes(), idBytes},
		c.programID,
	)
}

// BuildCreateTreasury creates an unsigned create_treasury transaction for
// the given owner set and signing threshold.
func (c *Client) BuildCreateTreasury(
	ctx context.Context,
	creator solana.PublicKey,
	nonce uint64,
	owners []solana.PublicKey,
	threshold uint8,
) (*solana.Transaction, error) {
	if len(owners) == 0 || len(owners) > MaxOwners {
		return nil, fmt.Errorf("owner count must be between 1 and %d", MaxOwners)
	}
	if threshold == 0 || int(threshold) > len(owners) {
		return nil, fmt.Errorf("threshold %d out of range for %d owners", threshold, len(owners))
	}
	treasuryPDA, _, err := c.DeriveTreasuryPDA(creator, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to derive treasury PDA: %w", err)
	}

	// Arg layout: disc(8) + nonce(8) + threshold(1) + owner_count(1) +
	// owners(32 each)
	data := append([]byte{}, discCreateTreasury...)
	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, nonce)
	data = append(data, nonceBytes...)
	data = append(data, threshold, uint8(len(owners)))
	for _, owner := range owners {
		data = append(data, owner.Bytes()...)
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(treasuryPDA).WRITE(),
		solana.Meta(creator).SIGNER().WRITE(),
		solana.Meta(systemProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, data), creator)
}

// BuildCreateProposal proposes a transaction for the treasury's owners to
// approve. The instruction payload carries the serialized inner transaction.
func (c *Client) BuildCreateProposal(
	ctx context.Context,
	proposer, treasury solana.PublicKey,
	proposalID uint64,
	innerTx []byte,
) (*solana.Transaction, error) {
	if len(innerTx) == 0 {
		return nil, fmt.Errorf("proposal payload is empty")
	}
	proposalPDA, _, err := c.DeriveProposalPDA(treasury, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive proposal PDA: %w", err)
	}

	data := append([]byte{}, discCreateProposal...)
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, proposalID)
	data = append(data, idBytes...)
	lenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBytes, uint32(len(innerTx)))
	data = append(data, lenBytes...)
	data = append(data, innerTx...)

	accounts := []*solana.AccountMeta{
		solana.Meta(treasury).WRITE(),
		solana.Meta(proposalPDA).WRITE(),
		solana.Meta(proposer).SIGNER().WRITE(),
		solana.Meta(systemProgramID),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, data), proposer)
}

// BuildApprove records one owner's approval of a proposal.
func (c *Client) BuildApprove(
	ctx context.Context,
	owner, treasury solana.PublicKey,
	proposalID uint64,
) (*solana.Transaction, error) {
	proposalPDA, _, err := c.DeriveProposalPDA(treasury, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive proposal PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(treasury),
		solana.Meta(proposalPDA).WRITE(),
		solana.Meta(owner).SIGNER(),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, discApprove), owner)
}

// BuildExecute executes an approved proposal.
func (c *Client) BuildExecute(
	ctx context.Context,
	executor, treasury solana.PublicKey,
	proposalID uint64,
) (*solana.Transaction, error) {
	proposalPDA, _, err := c.DeriveProposalPDA(treasury, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive proposal PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(treasury).WRITE(),
		solana.Meta(proposalPDA).WRITE(),
		solana.Meta(executor).SIGNER(),
	}

	return c.buildTransaction(ctx, solana.NewInstruction(c.programID, accounts, discExecuteProposal), executor)
}

// ApprovalsReached reports whether the recorded owner approvals meet the
// treasury threshold.
func ApprovalsReached(approvals []bool, threshold uint8) bool {
	count := 0
	for _, approved := range approvals {
		if approved {
			count++
		}
	}
	return count >= int(threshold)
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
