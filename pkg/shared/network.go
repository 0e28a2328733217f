package shared

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkPreviewnet = "previewnet"
)

// NormalizeNetwork lowercases and validates a network name. An empty name
// selects testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}

	switch normalized {
	case NetworkMainnet, NetworkTestnet, NetworkPreviewnet:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// NewHederaClient creates a consensus client for the named network.
func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}

	switch normalized {
	case NetworkMainnet:
		return hedera.ClientForMainnet(), nil
	case NetworkPreviewnet:
		return hedera.ClientForPreviewnet(), nil
	default:
		return hedera.ClientForTestnet(), nil
	}
}

// MirrorBaseURL returns the public mirror node for the named network.
func MirrorBaseURL(network string) (string, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return "", err
	}

	switch normalized {
	case NetworkMainnet:
		return "https://mainnet-public.mirrornode.hedera.com", nil
	case NetworkPreviewnet:
		return "https://previewnet.mirrornode.hedera.com", nil
	default:
		return "https://testnet.mirrornode.hedera.com", nil
	}
}

// HashScanAccountURL links an account on the HashScan explorer.
func HashScanAccountURL(network string, accountID string) string {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		normalized = NetworkTestnet
	}
	return fmt.Sprintf("https://hashscan.io/%s/account/%s", normalized, strings.TrimSpace(accountID))
}

// HashScanTokenURL links a token on the HashScan explorer.
func HashScanTokenURL(network string, tokenID string) string {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		normalized = NetworkTestnet
	}
	return fmt.Sprintf("https://hashscan.io/%s/token/%s", normalized, strings.TrimSpace(tokenID))
}
