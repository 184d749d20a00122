package fusion

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecrets(t *testing.T) {
	secrets, err := GenerateSecrets(3)
	require.NoError(t, err)
	require.Len(t, secrets, 3)

	seen := map[string]bool{}
	for _, s := range secrets {
		b, err := hexutil.Decode(s)
		require.NoError(t, err)
		assert.Len(t, b, 32)
		assert.False(t, seen[s], "secrets must be unique")
		seen[s] = true
	}
}

func TestGenerateSecrets_FloorsAtOne(t *testing.T) {
	secrets, err := GenerateSecrets(0)
	require.NoError(t, err)
	assert.Len(t, secrets, 1)
}

func TestHashSecret(t *testing.T) {
	secret := "0x" + "11" + "22334455667788990011223344556677889900112233445566778899001122"
	h, err := HashSecret(secret)
	require.NoError(t, err)

	raw, _ := hexutil.Decode(secret)
	assert.Equal(t, crypto.Keccak256Hash(raw), h)
}

func TestHashSecret_RejectsBadInput(t *testing.T) {
	_, err := HashSecret("not-hex")
	assert.Error(t, err)

	_, err = HashSecret("0x1234")
	assert.ErrorContains(t, err, "32 bytes")
}

func TestBuildHashLock_SingleFill(t *testing.T) {
	secrets, err := GenerateSecrets(1)
	require.NoError(t, err)

	lock, hashes, err := BuildHashLock(secrets)
	require.NoError(t, err)
	require.Len(t, hashes, 1)

	// A single-fill lock is the secret hash itself, no tree.
	assert.Equal(t, hashes[0], lock)
}

func TestBuildHashLock_MultipleFills(t *testing.T) {
	secrets, err := GenerateSecrets(4)
	require.NoError(t, err)

	lock, hashes, err := BuildHashLock(secrets)
	require.NoError(t, err)
	require.Len(t, hashes, 4)

	for _, h := range hashes {
		assert.NotEqual(t, h, lock, "merkle root must differ from every leaf")
	}

	// Same secrets always produce the same root.
	again, _, err := BuildHashLock(secrets)
	require.NoError(t, err)
	assert.Equal(t, lock, again)
}

func TestForMultipleFills_OddLeafCount(t *testing.T) {
	secrets, err := GenerateSecrets(3)
	require.NoError(t, err)
	hashes, err := HashSecrets(secrets)
	require.NoError(t, err)

	root, err := ForMultipleFills(hashes)
	require.NoError(t, err)
	assert.NotEqual(t, hashes[2], root)

	// The promoted odd leaf still participates: dropping it changes the root.
	pairRoot, err := ForMultipleFills(hashes[:2])
	require.NoError(t, err)
	assert.NotEqual(t, pairRoot, root)
}

func TestForMultipleFills_PairOrderIndependent(t *testing.T) {
	secrets, err := GenerateSecrets(2)
	require.NoError(t, err)
	hashes, err := HashSecrets(secrets)
	require.NoError(t, err)

	ab, err := ForMultipleFills(hashes)
	require.NoError(t, err)
	ba, err := ForMultipleFills([]common.Hash{hashes[1], hashes[0]})
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestForMultipleFills_NeedsTwoLeaves(t *testing.T) {
	secrets, _ := GenerateSecrets(1)
	hashes, _ := HashSecrets(secrets)
	_, err := ForMultipleFills(hashes)
	assert.Error(t, err)
}
