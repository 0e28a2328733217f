package hip542

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashgraph-online/hip542-go/pkg/mirror"
	"github.com/hashgraph-online/hip542-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// Client is the ledger handle for one workflow run. The operator identity
// pays for and signs every submission by default. Close must be called once
// the handle is no longer needed.
type Client struct {
	hederaClient    *hedera.Client
	mirrorClient    *mirror.Client
	operatorID      hedera.AccountID
	operatorKey     hedera.PrivateKey
	network         string
	aliasResolution string
	aliasRetry      RetryPolicy

	closeOnce sync.Once
	closeErr  error
}

// Connect validates the operator identity and binds it to a client for the
// configured network. Credential problems are reported as
// shared.ConfigurationError before any client is constructed.
func Connect(config ClientConfig) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, shared.ConfigurationError{Variable: "HEDERA_NETWORK", Message: "is invalid", Cause: err}
	}

	operatorID, operatorKey, err := shared.ParseOperator(shared.OperatorConfig{
		AccountID:  config.OperatorAccountID,
		PrivateKey: config.OperatorPrivateKey,
	})
	if err != nil {
		return nil, err
	}

	aliasResolution := strings.ToLower(strings.TrimSpace(config.AliasResolution))
	switch aliasResolution {
	case "":
		aliasResolution = AliasResolutionConsensus
	case AliasResolutionConsensus, AliasResolutionMirror:
	default:
		return nil, shared.ConfigurationError{
			Message: fmt.Sprintf("alias resolution %q is not one of %q or %q",
				config.AliasResolution, AliasResolutionConsensus, AliasResolutionMirror),
		}
	}

	mirrorClient, err := mirror.NewClient(mirror.Config{
		Network: network,
		BaseURL: config.MirrorBaseURL,
		APIKey:  config.MirrorAPIKey,
	})
	if err != nil {
		return nil, shared.ConfigurationError{Variable: "MIRROR_NODE_URL", Message: "is invalid", Cause: err}
	}

	hederaClient, err := shared.NewHederaClient(network)
	if err != nil {
		return nil, err
	}
	hederaClient.SetOperator(operatorID, operatorKey)

	return &Client{
		hederaClient:    hederaClient,
		mirrorClient:    mirrorClient,
		operatorID:      operatorID,
		operatorKey:     operatorKey,
		network:         network,
		aliasResolution: aliasResolution,
		aliasRetry:      config.AliasRetry,
	}, nil
}

// HederaClient returns the SDK client bound to the operator.
func (c *Client) HederaClient() *hedera.Client {
	return c.hederaClient
}

// MirrorClient returns the mirror node client for the same network.
func (c *Client) MirrorClient() *mirror.Client {
	return c.mirrorClient
}

// Network returns the normalized network name.
func (c *Client) Network() string {
	return c.network
}

// OperatorAccountID returns the account that pays for submissions.
func (c *Client) OperatorAccountID() hedera.AccountID {
	return c.operatorID
}

// Close releases the network connections. Later calls return the result of
// the first one.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.hederaClient != nil {
			c.closeErr = c.hederaClient.Close()
		}
	})
	return c.closeErr
}

// await runs a blocking SDK call and returns early when ctx is done. The SDK
// call itself keeps running until its own request deadline; a submission
// abandoned this way may still reach consensus.
func await[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := call()
		done <- outcome{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case result := <-done:
		return result.value, result.err
	}
}
