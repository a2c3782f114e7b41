package auth

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastParams() Argon2Params {
	return Argon2Params{MemoryKB: 8 * 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32}
}

func newTestHasher(t *testing.T) *Argon2Hasher {
	t.Helper()
	h, err := NewArgon2Hasher(fastParams())
	require.NoError(t, err)
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, plain := range []string{"correct-horse-battery-staple", "", "ñandú 🔐", strings.Repeat("x", 500)} {
		hash, err := h.Hash(plain)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)
		require.True(t, h.Verify(plain, hash))
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("correct-password")
	require.NoError(t, err)
	require.False(t, h.Verify("wrong-password", hash))
	require.False(t, h.Verify("correct-password ", hash))
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, h.Verify("same-password", first))
	require.True(t, h.Verify("same-password", second))
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	older, err := NewArgon2Hasher(Argon2Params{MemoryKB: 9 * 1024, Time: 2, Threads: 1, SaltLength: 16, KeyLength: 16})
	require.NoError(t, err)
	hash, err := older.Hash("portable")
	require.NoError(t, err)

	h := newTestHasher(t)
	require.True(t, h.Verify("portable", hash))
}

func TestVerifyMalformedHashes(t *testing.T) {
	h := newTestHasher(t)
	valid, err := h.Hash("password")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"plaintext", "password"},
		{"wrong algorithm", "$argon2i$v=19$m=8192,t=1,p=1$" + parts[4] + "$" + parts[5]},
		{"too few parts", "$argon2id$v=19$m=8192,t=1,p=1"},
		{"bad version", "$argon2id$v=16$m=8192,t=1,p=1$" + parts[4] + "$" + parts[5]},
		{"zero threads", "$argon2id$v=19$m=8192,t=1,p=0$" + parts[4] + "$" + parts[5]},
		{"huge memory", "$argon2id$v=19$m=99999999,t=1,p=1$" + parts[4] + "$" + parts[5]},
		{"bad salt", "$argon2id$v=19$m=8192,t=1,p=1$!!!$" + parts[5]},
		{"empty key", "$argon2id$v=19$m=8192,t=1,p=1$" + parts[4] + "$"},
		{"garbage bcrypt", "$2a$10$notreallyahash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, h.Verify("password", tt.hash))
			require.True(t, h.NeedsRehash(tt.hash))
		})
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	h := newTestHasher(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	require.True(t, h.Verify("old-password", string(legacy)))
	require.False(t, h.Verify("other", string(legacy)))
	require.True(t, h.NeedsRehash(string(legacy)))
}

func TestNeedsRehash(t *testing.T) {
	weak := newTestHasher(t)
	hash, err := weak.Hash("password")
	require.NoError(t, err)
	require.False(t, weak.NeedsRehash(hash))

	strong, err := NewArgon2Hasher(Argon2Params{MemoryKB: 16 * 1024, Time: 2, Threads: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	require.True(t, strong.NeedsRehash(hash))
}

func TestNewArgon2HasherRejectsWeakParams(t *testing.T) {
	_, err := NewArgon2Hasher(Argon2Params{MemoryKB: 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32})
	require.Error(t, err)

	_, err = NewArgon2Hasher(Argon2Params{MemoryKB: 8 * 1024, Time: 1, Threads: 1, SaltLength: 8, KeyLength: 32})
	require.Error(t, err)

	_, err = NewArgon2Hasher(DefaultArgon2Params())
	require.NoError(t, err)
}

func TestHasherConcurrentUse(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.Hash("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !h.Verify("shared", hash) {
				errs <- "verify failed"
			}
		}()
	}
	wg.Wait()
	close(errs)
	require.Empty(t, errs)
}

func TestNewArgon2HasherRejectsMemoryItCannotVerify(t *testing.T) {
	params := fastParams()
	params.MemoryKB = maxArgon2MemoryKB + 1
	_, err := NewArgon2Hasher(params)
	require.ErrorContains(t, err, "memory")

	params.MemoryKB = maxArgon2MemoryKB
	_, err = NewArgon2Hasher(params)
	require.NoError(t, err)

	_, err = decodeArgon2id("$argon2id$v=19$m=4194304,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5aw")
	require.NoError(t, err)
}
