package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// LayoutKey identifies one cached layout: the engine that computed it and the
// structural hash of the input it was computed from.
type LayoutKey struct {
	Engine string
	Input  string
}

// String renders the key as "layout:<engine>:<input hash>".
func (k LayoutKey) String() string {
	return "layout:" + k.Engine + ":" + k.Input
}

// ParseLayoutKey is the inverse of LayoutKey.String. A scope prefix added by
// a ScopedKeyer is skipped.
func ParseLayoutKey(s string) (LayoutKey, bool) {
	i := strings.Index(s, "layout:")
	if i < 0 {
		return LayoutKey{}, false
	}
	engine, input, ok := strings.Cut(s[i+len("layout:"):], ":")
	if !ok || engine == "" || input == "" {
		return LayoutKey{}, false
	}
	return LayoutKey{Engine: engine, Input: input}, true
}

// HashJSON hashes the JSON encoding of v. encoding/json sorts map keys, so
// values with equal content hash equally. Values that have no JSON encoding
// (NaN, channels, functions) are an error.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash input: %w", err)
	}
	return Hash(data), nil
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
