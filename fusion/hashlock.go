package fusion

import (
	"crypto/rand"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateSecrets returns count cryptographically random 32-byte secrets as
// 0x-prefixed hex strings. Secrets are one-shot: never reused across orders.
func GenerateSecrets(count int) ([]string, error) {
	if count < 1 {
		count = 1
	}
	secrets := make([]string, count)
	for i := range secrets {
		var b [32]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		secrets[i] = hexutil.Encode(b[:])
	}
	return secrets, nil
}

// HashSecret derives the hashlock leaf for one secret.
func HashSecret(secret string) (common.Hash, error) {
	b, err := hexutil.Decode(secret)
	if err != nil {
		return common.Hash{}, fmt.Errorf("decode secret: %w", err)
	}
	if len(b) != 32 {
		return common.Hash{}, fmt.Errorf("secret must be 32 bytes, got %d", len(b))
	}
	return crypto.Keccak256Hash(b), nil
}

// HashSecrets maps HashSecret over a slice.
func HashSecrets(secrets []string) ([]common.Hash, error) {
	hashes := make([]common.Hash, len(secrets))
	for i, s := range secrets {
		h, err := HashSecret(s)
		if err != nil {
			return nil, err
		}
		hashes[i] = h
	}
	return hashes, nil
}

// ForSingleFill builds the hashlock for an order settled by one resolver:
// the lock is simply the secret's hash.
func ForSingleFill(secret string) (common.Hash, error) {
	return HashSecret(secret)
}

// ForMultipleFills builds a Merkle-tree hashlock over the given secret
// hashes, used when the settlement network splits the fill across resolvers.
// Pairs are sorted before hashing so the root is independent of sibling
// order; an odd node is promoted to the next level unchanged.
func ForMultipleFills(leaves []common.Hash) (common.Hash, error) {
	if len(leaves) < 2 {
		return common.Hash{}, fmt.Errorf("merkle hashlock needs at least 2 leaves, got %d", len(leaves))
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0], nil
}

// BuildHashLock picks the single-fill or Merkle form based on how many
// secrets the quote requires.
func BuildHashLock(secrets []string) (common.Hash, []common.Hash, error) {
	hashes, err := HashSecrets(secrets)
	if err != nil {
		return common.Hash{}, nil, err
	}
	if len(secrets) == 1 {
		lock, err := ForSingleFill(secrets[0])
		return lock, hashes, err
	}
	lock, err := ForMultipleFills(hashes)
	return lock, hashes, err
}

func hashPair(a, b common.Hash) common.Hash {
	pair := []common.Hash{a, b}
	sort.Slice(pair, func(i, j int) bool {
		return pair[i].Big().Cmp(pair[j].Big()) < 0
	})
	return crypto.Keccak256Hash(pair[0].Bytes(), pair[1].Bytes())
}
