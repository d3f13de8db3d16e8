package fusion

import "testing"

func TestParsePreset(t *testing.T) {
	for _, input := range []string{"fast", "FAST", "Medium", "slow"} {
		if _, err := ParsePreset(input); err != nil {
			t.Fatalf("%q rejected: %v", input, err)
		}
	}
	if _, err := ParsePreset("turbo"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestOrderStateTerminal(t *testing.T) {
	nonTerminal := []OrderState{StatePending, StatePartiallyFilled, ""}
	for _, state := range nonTerminal {
		if state.Terminal() {
			t.Fatalf("%q should not be terminal", state)
		}
	}

	terminal := []OrderState{
		StateFilled, StateCancelled, StateExpired, StateRefunded,
		StateFalsePredicate, StateNotEnoughBalance, StateWrongPermit,
		StateInvalidPermit, StateInvalidSignature,
	}
	for _, state := range terminal {
		if !state.Terminal() {
			t.Fatalf("%q should be terminal", state)
		}
	}
}

func TestOrderStateSuccessful(t *testing.T) {
	if !StateFilled.Successful() {
		t.Fatal("filled should be successful")
	}
	for _, state := range []OrderState{StateCancelled, StateExpired, StatePending} {
		if state.Successful() {
			t.Fatalf("%q should not be successful", state)
		}
	}
}

func TestQuotePresetSelection(t *testing.T) {
	quote := &Quote{
		RecommendedPreset: PresetMedium,
		Presets: map[PresetName]Preset{
			PresetFast:   {AuctionEndAmount: "100"},
			PresetMedium: {AuctionEndAmount: "110"},
		},
	}

	recommended, err := quote.Preset("")
	if err != nil {
		t.Fatalf("recommended preset: %v", err)
	}
	if recommended.AuctionEndAmount != "110" {
		t.Fatalf("expected recommended preset, got %+v", recommended)
	}

	fast, err := quote.Preset(PresetFast)
	if err != nil {
		t.Fatalf("named preset: %v", err)
	}
	if fast.AuctionEndAmount != "100" {
		t.Fatalf("unexpected preset %+v", fast)
	}

	if _, err := quote.Preset(PresetSlow); err == nil {
		t.Fatal("expected error for missing preset")
	}
}

func TestFillTxHashEmpty(t *testing.T) {
	status := &OrderStatus{}
	if status.FillTxHash() != "" {
		t.Fatal("expected empty fill tx for order with no fills")
	}
}
