package evm

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testOwner   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testSpender = common.HexToAddress("0xa88800cd213Da5Ae406ce248380802BD53b47647")
)

func TestPackBalanceOf(t *testing.T) {
	data, err := PackBalanceOf(testOwner)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(data) != 4+32 {
		t.Fatalf("unexpected calldata length %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0x70, 0xa0, 0x82, 0x31}) {
		t.Fatalf("wrong selector %x", data[:4])
	}
	if !bytes.Equal(data[16:36], testOwner.Bytes()) {
		t.Fatalf("owner not encoded: %x", data)
	}
}

func TestPackAllowance(t *testing.T) {
	data, err := PackAllowance(testOwner, testSpender)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(data) != 4+64 {
		t.Fatalf("unexpected calldata length %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0xdd, 0x62, 0xed, 0x3e}) {
		t.Fatalf("wrong selector %x", data[:4])
	}
}

func TestPackApprove(t *testing.T) {
	amount := big.NewInt(1000000)
	data, err := PackApprove(testSpender, amount)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if !bytes.Equal(data[:4], []byte{0x09, 0x5e, 0xa7, 0xb3}) {
		t.Fatalf("wrong selector %x", data[:4])
	}
	if got := new(big.Int).SetBytes(data[36:68]); got.Cmp(amount) != 0 {
		t.Fatalf("amount not encoded: %s", got)
	}
}

func TestUnpackUint256(t *testing.T) {
	encoded := make([]byte, 32)
	encoded[31] = 42
	if got := UnpackUint256(encoded); got.Int64() != 42 {
		t.Fatalf("got %s, want 42", got)
	}
}

func TestMaxUint256(t *testing.T) {
	max := MaxUint256()
	if max.BitLen() != 256 {
		t.Fatalf("unexpected bit length %d", max.BitLen())
	}
	expected := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if max.Cmp(expected) != 0 {
		t.Fatal("not 2^256-1")
	}
}
