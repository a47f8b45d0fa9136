package decryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"

	"github.com/medivault/access-management-api/internal/models"
)

// AlgorithmAESGCM is the only algorithm the engine currently supports
const AlgorithmAESGCM = "AES-256-GCM"

const (
	keyLength        = 32
	gcmTagLength     = 16
	pbkdf2Iterations = 100000
)

// Category separates decryption failures by remediation: a key failure needs
// a different secret, an integrity failure means corrupt or tampered content,
// a metadata failure means the record itself is broken.
type Category string

const (
	CategoryKey       Category = "key"
	CategoryIntegrity Category = "integrity"
	CategoryMetadata  Category = "metadata"
)

// Error is a categorised decryption failure. Decryption errors are never
// retried: retrying a wrong key cannot succeed.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decryption failed (%s): %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(category Category, format string, args ...interface{}) *Error {
	return &Error{Category: category, Err: fmt.Errorf(format, args...)}
}

// Engine performs key derivation and authenticated decryption for encrypted
// file records.
type Engine struct {
	iterations int
	logger     *logrus.Logger
}

// NewEngine creates a new decryption engine
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		iterations: pbkdf2Iterations,
		logger:     logger,
	}
}

// DeriveKey derives an AES-256 key from the caller's key secret and the
// record's salt using PBKDF2-SHA256.
func (e *Engine) DeriveKey(keySecret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(keySecret), salt, e.iterations, keyLength, sha256.New)
}

// Decrypt validates the metadata bundle, derives the key and opens the
// AES-GCM envelope. The ciphertext arrives content-addressed, so its bytes
// are already pinned by hash; an authentication failure on well-formed input
// therefore almost always means a wrong key and is categorised as such.
func (e *Engine) Decrypt(ciphertext []byte, meta *models.EncryptionMetadata, keySecret string) ([]byte, error) {
	if meta == nil {
		return nil, newError(CategoryMetadata, "encryption metadata is missing")
	}
	if meta.Algorithm != AlgorithmAESGCM {
		return nil, newError(CategoryMetadata, "unsupported algorithm: %s", meta.Algorithm)
	}
	if keySecret == "" {
		return nil, newError(CategoryKey, "key secret is empty")
	}

	salt, err := base64.StdEncoding.DecodeString(meta.Salt)
	if err != nil {
		return nil, newError(CategoryMetadata, "salt is not valid base64: %v", err)
	}
	if len(salt) == 0 {
		return nil, newError(CategoryMetadata, "salt is empty")
	}

	iv, err := base64.StdEncoding.DecodeString(meta.IV)
	if err != nil {
		return nil, newError(CategoryMetadata, "IV is not valid base64: %v", err)
	}

	authTag, err := base64.StdEncoding.DecodeString(meta.AuthTag)
	if err != nil {
		return nil, newError(CategoryMetadata, "auth tag is not valid base64: %v", err)
	}
	if len(authTag) != gcmTagLength {
		return nil, newError(CategoryIntegrity, "auth tag has invalid length %d", len(authTag))
	}

	key := e.DeriveKey(keySecret, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newError(CategoryKey, "failed to initialise cipher: %v", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, newError(CategoryMetadata, "IV has invalid length %d", len(iv))
	}

	// Go's GCM expects the tag appended to the ciphertext.
	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"ciphertextSize": len(ciphertext),
		}).Warn("Authenticated decryption failed")
		return nil, newError(CategoryKey, "authentication failed: %v", err)
	}

	return plaintext, nil
}

// Encrypt seals plaintext with a key derived from the secret and a fresh
// salt and IV, returning ciphertext and the metadata bundle needed to
// decrypt it. Exposed for upload flows and tests.
func (e *Engine) Encrypt(plaintext []byte, keySecret string, salt, iv []byte) ([]byte, *models.EncryptionMetadata, error) {
	if keySecret == "" {
		return nil, nil, newError(CategoryKey, "key secret is empty")
	}
	if len(salt) == 0 {
		return nil, nil, newError(CategoryMetadata, "salt is empty")
	}

	key := e.DeriveKey(keySecret, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, newError(CategoryKey, "failed to initialise cipher: %v", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, nil, newError(CategoryMetadata, "IV has invalid length %d", len(iv))
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-gcmTagLength]
	authTag := sealed[len(sealed)-gcmTagLength:]

	meta := &models.EncryptionMetadata{
		Salt:         base64.StdEncoding.EncodeToString(salt),
		IV:           base64.StdEncoding.EncodeToString(iv),
		AuthTag:      base64.StdEncoding.EncodeToString(authTag),
		OriginalSize: int64(len(plaintext)),
		Algorithm:    AlgorithmAESGCM,
	}

	return ciphertext, meta, nil
}
