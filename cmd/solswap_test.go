package cmd

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/1inch/sdks-examples/pkg/fusion"
	"github.com/1inch/sdks-examples/pkg/track"
	"github.com/1inch/sdks-examples/pkg/types"
)

func TestSolRecordConfirmedNotFilled(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	swapReq := &types.SwapRequest{Amount: "0.5", SourceToken: "SOL", DestToken: "USDC"}
	recordSolOrder("sig123", "fast", swapReq, "500000000", "42000000")
	updateSolRecord("sig123", "confirmed")

	storage, err := track.NewStorage("")
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	record, err := storage.Get("sig123")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	if record.Status != "confirmed" {
		t.Fatalf("unexpected status %q", record.Status)
	}
	if record.Status == string(fusion.StateFilled) {
		t.Fatal("escrow funding must not be recorded as a fill")
	}
	if record.Chain != "solana" {
		t.Fatalf("unexpected chain %q", record.Chain)
	}
}

func TestDisplaySolQuoteLabels(t *testing.T) {
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	swapReq := &types.SwapRequest{Amount: "0.5", SourceToken: "SOL", DestToken: "USDC"}
	quote := &fusion.Quote{ToTokenAmount: "42500000", RecommendedPreset: fusion.PresetFast}
	displaySolQuote(swapReq, quote, 42000000, "So11111111111111111111111111111111111111112", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	output := string(out)

	if !strings.Contains(output, "Expected Out:  42500000") {
		t.Fatalf("expected amount mislabeled:\n%s", output)
	}
	if !strings.Contains(output, "Min Out:       42000000") {
		t.Fatalf("minimum should come from the auction end amount:\n%s", output)
	}
}
