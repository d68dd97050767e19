package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Call selectors, derived from the contract signatures the same way solc
// derives them: first four bytes of the keccak-256 hash.
var (
	selectorBalanceOf     = selector("balanceOf(address)")
	selectorGetStakerInfo = selector("getStakerInfo(address)")
)

const wordSize = 32

func selector(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return hex.EncodeToString(h.Sum(nil)[:4])
}

// encodeCall builds eth_call data for a single-address-argument function: the
// 4-byte selector followed by the address left-padded to a 32-byte word.
func encodeCall(selector, address string) string {
	addr := strings.ToLower(strings.TrimPrefix(address, "0x"))
	return "0x" + selector + strings.Repeat("0", 2*wordSize-len(addr)) + addr
}

// decodeUint decodes a single uint256 return value into an int64.
func decodeUint(result string) (int64, error) {
	trimmed := strings.TrimPrefix(result, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty result")
	}
	value, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return 0, fmt.Errorf("malformed uint256 %q", result)
	}
	if !value.IsInt64() {
		return 0, fmt.Errorf("uint256 %s overflows int64", value)
	}
	return value.Int64(), nil
}

// decodeStakerInfo decodes the staking contract's
// (uint256[] stakedTokenIds, uint256 totalPoints, uint256 tier, bool isMinter)
// return tuple.
func decodeStakerInfo(result string) (StakerInfo, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return StakerInfo{}, fmt.Errorf("malformed result: %w", err)
	}
	if len(data) < 4*wordSize {
		return StakerInfo{}, fmt.Errorf("result too short: %d bytes", len(data))
	}

	arrayOffset, err := wordToInt(data, 0)
	if err != nil {
		return StakerInfo{}, err
	}
	totalPoints, err := wordToInt(data, 1)
	if err != nil {
		return StakerInfo{}, err
	}
	tier, err := wordToInt(data, 2)
	if err != nil {
		return StakerInfo{}, err
	}
	minterWord, err := wordToInt(data, 3)
	if err != nil {
		return StakerInfo{}, err
	}

	if arrayOffset < 0 || arrayOffset+wordSize > int64(len(data)) {
		return StakerInfo{}, fmt.Errorf("token id array offset %d out of range", arrayOffset)
	}
	length := new(big.Int).SetBytes(data[arrayOffset : arrayOffset+wordSize])
	if !length.IsInt64() {
		return StakerInfo{}, fmt.Errorf("token id array length overflows int64")
	}
	count := length.Int64()
	elementsEnd := arrayOffset + wordSize + count*wordSize
	if count < 0 || elementsEnd > int64(len(data)) {
		return StakerInfo{}, fmt.Errorf("token id array length %d out of range", count)
	}

	tokenIDs := make([]uint64, 0, count)
	for i := int64(0); i < count; i++ {
		start := arrayOffset + wordSize + i*wordSize
		id := new(big.Int).SetBytes(data[start : start+wordSize])
		if !id.IsUint64() {
			return StakerInfo{}, fmt.Errorf("token id %s overflows uint64", id)
		}
		tokenIDs = append(tokenIDs, id.Uint64())
	}

	return StakerInfo{
		StakedTokenIDs: tokenIDs,
		TotalPoints:    totalPoints,
		Tier:           int(tier),
		IsMinter:       minterWord != 0,
	}, nil
}

func wordToInt(data []byte, index int) (int64, error) {
	start := index * wordSize
	value := new(big.Int).SetBytes(data[start : start+wordSize])
	if !value.IsInt64() {
		return 0, fmt.Errorf("word %d overflows int64", index)
	}
	return value.Int64(), nil
}
