package solfusion

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
)

// FusionSwapProgramID is the on-chain escrow program orders are created
// against. The program itself is external; this package only builds the
// create instruction it expects.
var FusionSwapProgramID = solana.MustPublicKeyFromBase58("HNarfxC3kYMMhFkxUFeYb8wHVdPzY5t9pupqW5fL2meM")

// OrderParams describes one escrow order
type OrderParams struct {
	OrderID      uint32
	SrcMint      string
	DstMint      string
	SrcAmount    uint64
	MinDstAmount uint64
	Receiver     string // defaults to maker
}

// NewOrderID returns a random order id for escrow derivation
func NewOrderID() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to generate order id: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// buildOrderInstructions assembles the escrow create instruction, plus
// the maker's ATA creation when it does not exist yet.
func (s *Swapper) buildOrderInstructions(ctx context.Context, params *OrderParams) ([]solana.Instruction, error) {
	srcMint, err := solana.PublicKeyFromBase58(params.SrcMint)
	if err != nil {
		return nil, fmt.Errorf("invalid source mint: %w", err)
	}
	dstMint, err := solana.PublicKeyFromBase58(params.DstMint)
	if err != nil {
		return nil, fmt.Errorf("invalid destination mint: %w", err)
	}

	receiver := s.publicKey
	if params.Receiver != "" {
		receiver, err = solana.PublicKeyFromBase58(params.Receiver)
		if err != nil {
			return nil, fmt.Errorf("invalid receiver address: %w", err)
		}
	}

	makerAta, _, err := solana.FindAssociatedTokenAddress(s.publicKey, srcMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive maker token account: %w", err)
	}

	escrow, err := DeriveEscrow(s.publicKey, params.OrderID)
	if err != nil {
		return nil, err
	}

	escrowAta, _, err := solana.FindAssociatedTokenAddress(escrow, srcMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive escrow token account: %w", err)
	}

	var instructions []solana.Instruction

	exists, err := s.accountExists(ctx, makerAta)
	if err != nil {
		return nil, fmt.Errorf("failed to check maker token account: %w", err)
	}
	if !exists {
		createAta := associatedtokenaccount.NewCreateInstruction(
			s.publicKey, // payer
			s.publicKey, // wallet
			srcMint,     // mint
		).Build()
		instructions = append(instructions, createAta)
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(s.publicKey).WRITE().SIGNER(),
		solana.Meta(escrow).WRITE(),
		solana.Meta(makerAta).WRITE(),
		solana.Meta(escrowAta).WRITE(),
		solana.Meta(srcMint),
		solana.Meta(dstMint),
		solana.Meta(receiver),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(solana.SystemProgramID),
	}

	instructions = append(instructions, solana.NewInstruction(
		FusionSwapProgramID,
		accounts,
		EncodeCreateOrder(params),
	))

	return instructions, nil
}

// DeriveEscrow derives the escrow PDA for a maker and order id
func DeriveEscrow(maker solana.PublicKey, orderID uint32) (solana.PublicKey, error) {
	var idSeed [4]byte
	binary.LittleEndian.PutUint32(idSeed[:], orderID)

	escrow, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("escrow"), maker.Bytes(), idSeed[:]},
		FusionSwapProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive escrow address: %w", err)
	}
	return escrow, nil
}

// EncodeCreateOrder packs the create instruction data: an Anchor-style
// 8-byte method discriminator followed by little-endian arguments.
func EncodeCreateOrder(params *OrderParams) []byte {
	data := make([]byte, 0, 8+4+8+8)
	data = append(data, anchorDiscriminator("create")...)

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], params.OrderID)
	data = append(data, buf[:4]...)
	binary.LittleEndian.PutUint64(buf[:], params.SrcAmount)
	data = append(data, buf[:]...)
	binary.LittleEndian.PutUint64(buf[:], params.MinDstAmount)
	data = append(data, buf[:]...)

	return data
}

func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

func (s *Swapper) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	accountInfo, err := s.client.GetAccountInfo(ctx, account)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return accountInfo.Value != nil, nil
}
