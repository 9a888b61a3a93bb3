package helpers

import (
	"math/big"
	"testing"
)

func TestIsValidEthAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0x6B175474E89094C44Da98b954EedeAC495271d0F", true},
		{"0x6b175474e89094c44da98b954eedeac495271d0f", true},
		{"6B175474E89094C44Da98b954EedeAC495271d0F", false},
		{"0x6B17", false},
		{"0xZZ175474E89094C44Da98b954EedeAC495271d0F", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidEthAddress(tt.in); got != tt.want {
			t.Errorf("IsValidEthAddress(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAndCompare(t *testing.T) {
	lower := "0x6b175474e89094c44da98b954eedeac495271d0f"
	if got := NormalizeAddress(lower); got != "0x6B175474E89094C44Da98b954EedeAC495271d0F" {
		t.Errorf("NormalizeAddress = %s", got)
	}
	if got := NormalizeAddress("  not-an-address "); got != "not-an-address" {
		t.Errorf("NormalizeAddress passthrough = %q", got)
	}
	if !SameAddress(lower, "0x6B175474E89094C44Da98b954EedeAC495271d0F") {
		t.Error("expected case-insensitive match")
	}
	if SameAddress("", "") {
		t.Error("empty addresses must not match")
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{"whole", "2", 18, "2000000000000000000", false},
		{"fraction", "1.5", 6, "1500000", false},
		{"empty", "", 18, "0", false},
		{"too precise", "0.0000001", 6, "", true},
		{"negative", "-1", 18, "", true},
		{"garbage", "abc", 18, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.text, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234500000000000000", 10)
	if got := FormatUnits(wei, 18, 4); got != "1.2345" {
		t.Errorf("FormatUnits = %s", got)
	}
	if got := FormatToken(nil, 6, "USDC"); got != "0 USDC" {
		t.Errorf("FormatToken(nil) = %s", got)
	}
}

func TestSlippageConversions(t *testing.T) {
	bps, err := PercentToBps("0.5%")
	if err != nil || bps != 50 {
		t.Fatalf("PercentToBps = %d, %v", bps, err)
	}
	if _, err := PercentToBps("101"); err == nil {
		t.Error("expected out of range error")
	}
	if got := BpsToPercent(125); got != 1.25 {
		t.Errorf("BpsToPercent = %v", got)
	}
}

func TestShortenAddr(t *testing.T) {
	if got := ShortenAddr("0x6B175474E89094C44Da98b954EedeAC495271d0F"); got != "0x6B17…1d0F" {
		t.Errorf("ShortenAddr = %s", got)
	}
	if got := ShortenAddr("0x12"); got != "0x12" {
		t.Errorf("ShortenAddr short = %s", got)
	}
}
