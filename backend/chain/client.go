// Package chain implements the Chain Query capability: on-chain NFT balance
// and staker info lookups over JSON-RPC against a configured RPC endpoint and
// two known contract addresses.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/hodlgate/hodlgate/hodlgate/logger"
)

var (
	// ErrInvalidAddress marks a malformed wallet address, rejected before any
	// network call.
	ErrInvalidAddress = errors.New("invalid wallet address")
	// ErrUnreachable marks a transport-level failure reaching the RPC node.
	ErrUnreachable = errors.New("rpc endpoint unreachable")
	// ErrReverted marks a call the node accepted but the contract rejected.
	ErrReverted = errors.New("contract call reverted")
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// StakerInfo is the canonical named-field shape of the staking contract's
// response. On-wire words are normalized to native integers at this boundary.
type StakerInfo struct {
	StakedTokenIDs []uint64
	TotalPoints    int64
	Tier           int
	IsMinter       bool
}

// Querier is the capability interface the verification workflow calls
// through.
type Querier interface {
	NFTBalance(ctx context.Context, address string) (int, error)
	StakerInfo(ctx context.Context, address string) (StakerInfo, error)
}

const cacheSize = 1024

// Client queries the NFT and staking contracts via eth_call. Results are
// cached per address for a short TTL to absorb double-submits; a TTL of zero
// disables caching.
type Client struct {
	httpClient      *http.Client
	rpcURL          string
	nftContract     string
	stakingContract string
	cacheTTL        time.Duration
	cache           *lru.Cache
	nextID          atomic.Uint64
}

type cachedResult struct {
	value     any
	timestamp time.Time
}

func NewClient(rpcURL, nftContract, stakingContract string, cacheTTL time.Duration) *Client {
	cache, _ := lru.New(cacheSize)
	return &Client{
		httpClient:      &http.Client{},
		rpcURL:          rpcURL,
		nftContract:     nftContract,
		stakingContract: stakingContract,
		cacheTTL:        cacheTTL,
		cache:           cache,
	}
}

// NFTBalance returns the direct-held token count for an address via the
// ERC-721 balanceOf call.
func (c *Client) NFTBalance(ctx context.Context, address string) (int, error) {
	if !addressPattern.MatchString(address) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	cacheKey := "balance:" + strings.ToLower(address)
	if balance, ok := cacheLookup[int](c, cacheKey); ok {
		return balance, nil
	}

	start := time.Now()
	result, err := c.ethCall(ctx, c.nftContract, encodeCall(selectorBalanceOf, address))
	logger.LogChainQuery("balanceOf", address, time.Since(start), err)
	if err != nil {
		return 0, err
	}

	balance, err := decodeUint(result)
	if err != nil {
		return 0, fmt.Errorf("%w: balanceOf: %v", ErrReverted, err)
	}

	c.cacheStore(cacheKey, int(balance))
	return int(balance), nil
}

// StakerInfo returns the staking contract's view of an address: staked token
// ids, accumulated points, tier and the minter flag.
func (c *Client) StakerInfo(ctx context.Context, address string) (StakerInfo, error) {
	if !addressPattern.MatchString(address) {
		return StakerInfo{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	cacheKey := "staker:" + strings.ToLower(address)
	if info, ok := cacheLookup[StakerInfo](c, cacheKey); ok {
		return info, nil
	}

	start := time.Now()
	result, err := c.ethCall(ctx, c.stakingContract, encodeCall(selectorGetStakerInfo, address))
	logger.LogChainQuery("getStakerInfo", address, time.Since(start), err)
	if err != nil {
		return StakerInfo{}, err
	}

	info, err := decodeStakerInfo(result)
	if err != nil {
		return StakerInfo{}, fmt.Errorf("%w: getStakerInfo: %v", ErrReverted, err)
	}

	c.cacheStore(cacheKey, info)
	return info, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ethCall issues a read-only contract call against the latest block and
// returns the hex-encoded result.
func (c *Client) ethCall(ctx context.Context, contract, data string) (string, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "eth_call",
		Params: []any{
			map[string]any{"to": contract, "data": data},
			"latest",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("rpc request: %w", err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrUnreachable, err)
	}

	if rpcResp.Error != nil {
		return "", fmt.Errorf("%w: rpc error %d: %s", ErrReverted, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result string
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return "", fmt.Errorf("%w: non-string result: %v", ErrReverted, err)
	}
	return result, nil
}

func cacheLookup[T any](c *Client, key string) (T, bool) {
	var zero T
	if c.cacheTTL <= 0 {
		return zero, false
	}
	cached, ok := c.cache.Get(key)
	if !ok {
		return zero, false
	}
	entry, ok := cached.(cachedResult)
	if !ok || time.Since(entry.timestamp) >= c.cacheTTL {
		return zero, false
	}
	value, ok := entry.value.(T)
	return value, ok
}

func (c *Client) cacheStore(key string, value any) {
	if c.cacheTTL <= 0 {
		return
	}
	c.cache.Add(key, cachedResult{value: value, timestamp: time.Now()})
}
