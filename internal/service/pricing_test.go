package service

import "testing"

func TestCostUSDKnownModel(t *testing.T) {
	// gpt-4o-mini: $0.15 / $0.60 per million tokens.
	got := CostUSD("gpt-4o-mini", 1_000_000, 1_000_000)
	want := 0.75
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("CostUSD = %v, want %v", got, want)
	}
}

func TestCostUSDProviderPrefix(t *testing.T) {
	plain := CostUSD("gpt-4o", 10_000, 1_000)
	prefixed := CostUSD("openai/gpt-4o", 10_000, 1_000)
	if plain != prefixed {
		t.Fatalf("provider prefix must not change pricing: %v vs %v", plain, prefixed)
	}
	if plain <= 0 {
		t.Fatal("expected nonzero cost")
	}
}

func TestCostUSDVersionedName(t *testing.T) {
	if CostUSD("gpt-4o-2024-11-20", 1000, 100) <= 0 {
		t.Fatal("versioned model names should match by prefix")
	}
}

func TestCostUSDUnknownModel(t *testing.T) {
	if got := CostUSD("some-local-model", 1000, 100); got != 0 {
		t.Fatalf("unknown model must cost 0, got %v", got)
	}
}

func TestCostUSDZeroTokens(t *testing.T) {
	if got := CostUSD("gpt-4o", 0, 0); got != 0 {
		t.Fatalf("zero tokens must cost 0, got %v", got)
	}
}
