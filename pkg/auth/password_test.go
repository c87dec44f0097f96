package auth

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashers(t *testing.T) {
	hashers := map[string]Hasher{
		HasherBcrypt:   BcryptHasher{Cost: bcrypt.MinCost},
		HasherArgon2id: Argon2idHasher{Params: &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("s3cret-Pass")
			require.NoError(t, err)
			assert.NotEqual(t, "s3cret-Pass", hash)

			ok, err := h.Compare(hash, "s3cret-Pass")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Compare(hash, "wrong")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCompareAcceptsEitherAlgorithm(t *testing.T) {
	bcryptHash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("pw")
	require.NoError(t, err)

	ok, err := Argon2idHasher{}.Compare(bcryptHash, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	h, err = NewHasher(HasherArgon2id)
	require.NoError(t, err)
	assert.IsType(t, Argon2idHasher{}, h)

	_, err = NewHasher("md5")
	assert.Error(t, err)
}
