package decryption

import (
	"encoding/base64"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivault/access-management-api/internal/models"
)

func testEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	e := NewEngine(logger)
	// Full-strength derivation is needless in tests.
	e.iterations = 100
	return e
}

func sealTestContent(t *testing.T, e *Engine, plaintext []byte, secret string) ([]byte, *models.EncryptionMetadata) {
	t.Helper()
	salt := []byte("0123456789abcdef")
	iv := []byte("0123456789ab")
	ciphertext, meta, err := e.Encrypt(plaintext, secret, salt, iv)
	require.NoError(t, err)
	return ciphertext, meta
}

// TestDecrypt_RoundTrip tests that sealed content decrypts back to the
// original plaintext
func TestDecrypt_RoundTrip(t *testing.T) {
	e := testEngine()
	plaintext := []byte("patient lab results, confidential")
	ciphertext, meta := sealTestContent(t, e, plaintext, "correct-horse-battery")

	got, err := e.Decrypt(ciphertext, meta, "correct-horse-battery")

	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
	assert.Equal(t, int64(len(plaintext)), meta.OriginalSize)
}

// TestDecrypt_WrongKey tests that a wrong secret fails with the key category
func TestDecrypt_WrongKey(t *testing.T) {
	e := testEngine()
	ciphertext, meta := sealTestContent(t, e, []byte("secret data"), "right-secret")

	_, err := e.Decrypt(ciphertext, meta, "wrong-secret")

	require.Error(t, err)
	var decErr *Error
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, CategoryKey, decErr.Category)
}

// TestDecrypt_TruncatedAuthTag tests that a malformed tag fails with the
// integrity category before any key work happens
func TestDecrypt_TruncatedAuthTag(t *testing.T) {
	e := testEngine()
	ciphertext, meta := sealTestContent(t, e, []byte("secret data"), "right-secret")
	meta.AuthTag = base64.StdEncoding.EncodeToString([]byte("short"))

	_, err := e.Decrypt(ciphertext, meta, "right-secret")

	var decErr *Error
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, CategoryIntegrity, decErr.Category)
}

// TestDecrypt_MetadataFailures tests the metadata category for missing or
// malformed bundle fields
func TestDecrypt_MetadataFailures(t *testing.T) {
	e := testEngine()
	ciphertext, meta := sealTestContent(t, e, []byte("secret data"), "right-secret")

	cases := []struct {
		name   string
		mutate func(m *models.EncryptionMetadata)
	}{
		{"bad algorithm", func(m *models.EncryptionMetadata) { m.Algorithm = "ROT13" }},
		{"salt not base64", func(m *models.EncryptionMetadata) { m.Salt = "%%%not-base64%%%" }},
		{"iv not base64", func(m *models.EncryptionMetadata) { m.IV = "%%%not-base64%%%" }},
		{"tag not base64", func(m *models.EncryptionMetadata) { m.AuthTag = "%%%not-base64%%%" }},
		{"empty salt", func(m *models.EncryptionMetadata) { m.Salt = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := *meta
			tc.mutate(&m)

			_, err := e.Decrypt(ciphertext, &m, "right-secret")

			var decErr *Error
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, CategoryMetadata, decErr.Category)
		})
	}

	_, err := e.Decrypt(ciphertext, nil, "right-secret")
	var decErr *Error
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, CategoryMetadata, decErr.Category)
}

// TestDecrypt_EmptyKeySecret tests the key category for a missing secret
func TestDecrypt_EmptyKeySecret(t *testing.T) {
	e := testEngine()
	ciphertext, meta := sealTestContent(t, e, []byte("secret data"), "right-secret")

	_, err := e.Decrypt(ciphertext, meta, "")

	var decErr *Error
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, CategoryKey, decErr.Category)
}

// TestDeriveKey_Deterministic tests that derivation is stable for the same
// inputs and diverges on either input changing
func TestDeriveKey_Deterministic(t *testing.T) {
	e := testEngine()
	salt := []byte("0123456789abcdef")

	k1 := e.DeriveKey("secret", salt)
	k2 := e.DeriveKey("secret", salt)
	k3 := e.DeriveKey("other", salt)
	k4 := e.DeriveKey("secret", []byte("fedcba9876543210"))

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 32)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
}
