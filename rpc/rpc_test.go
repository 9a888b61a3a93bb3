package rpc

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestConnect(t *testing.T) {
	// Get RPC URL from environment
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := ConnectWithTimeout(rpcURL, 8*time.Second)
		if result.Error != nil {
			t.Fatalf("Failed to connect to RPC: %v", result.Error)
		}
		defer result.Client.Close()

		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}
		if result.Client.ChainID <= 0 {
			t.Errorf("Expected a chain id, got %d", result.Client.ChainID)
		}
		t.Logf("Connected to chain ID: %d", result.Client.ChainID)
	})

	t.Run("invalid URL", func(t *testing.T) {
		result := ConnectWithTimeout("not-a-valid-url", 2*time.Second)
		if result.Error == nil {
			result.Client.Close()
			t.Error("Expected an error for a malformed URL")
		}
	})
}

func TestReadMainnetToken(t *testing.T) {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping token metadata test")
	}

	conn := ConnectWithTimeout(rpcURL, 8*time.Second)
	if conn.Error != nil {
		t.Fatalf("Failed to connect: %v", conn.Error)
	}
	defer conn.Client.Close()
	if conn.Client.ChainID != 1 {
		t.Skipf("ETH_RPC_URL serves chain %d, want mainnet", conn.Client.ChainID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	md, err := ReadTokenMetadata(ctx, conn.Client, dai)
	if err != nil {
		t.Fatalf("ReadTokenMetadata: %v", err)
	}
	if md.Symbol != "DAI" || md.Decimals != 18 {
		t.Errorf("unexpected metadata %+v", md)
	}

	mkr := common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	md, err = ReadTokenMetadata(ctx, conn.Client, mkr)
	if err != nil {
		t.Fatalf("ReadTokenMetadata(MKR): %v", err)
	}
	if md.Symbol != "MKR" {
		t.Errorf("bytes32 symbol decoded as %q", md.Symbol)
	}

	vitalik := common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
	b := LoadBalances(ctx, conn.Client, vitalik, []WatchedToken{{Symbol: "DAI", Decimals: 18, Address: dai}})
	if b.ErrMessage != "" {
		t.Fatalf("LoadBalances: %s", b.ErrMessage)
	}
	if b.Native == nil {
		t.Error("Native balance is nil")
	}
}
