package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastArgon() *ArgonHash {
	a := New()
	a.Memory = 1024
	a.Iterations = 1
	return a
}

func TestArgonRoundTrip(t *testing.T) {
	a := fastArgon()

	hash, err := a.GenerateFromPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=2$"))
	assert.NotContains(t, hash, "hunter22")

	ok, err := a.VerifyPasswd("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonSalted(t *testing.T) {
	a := fastArgon()

	h1, err := a.GenerateFromPassword("same password")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonInvalidHash(t *testing.T) {
	a := fastArgon()

	for _, h := range []string{"", "plaintext", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=18$m=1,t=1,p=1$a$b"} {
		_, err := a.VerifyPasswd("x", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestMakeVerificationToken(t *testing.T) {
	t1, err := MakeVerificationToken()
	require.NoError(t, err)
	t2, err := MakeVerificationToken()
	require.NoError(t, err)

	assert.Len(t, t1, 32)
	assert.NotEqual(t, t1, t2)
}
