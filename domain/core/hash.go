package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	InputSetHash   Hash
	ParametersHash Hash
)

func (h InputSetHash) String() string   { return Hash(h).String() }
func (h ParametersHash) String() string { return Hash(h).String() }

// ComputeInputSetHash hashes the set of input paths independent of discovery order.
func ComputeInputSetHash(paths []string) InputSetHash {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return InputSetHash(NewHash([]byte(strings.Join(sorted, "\n"))))
}

// ComputeParametersHash hashes analysis parameters in key order.
func ComputeParametersHash(params map[string]interface{}) ParametersHash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(fmt.Sprintf("%v", params[key]))
		data.WriteString(";")
	}
	return ParametersHash(NewHash([]byte(data.String())))
}
