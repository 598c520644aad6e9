package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/pbkdf2"

	"github.com/tungdibui2609/saritaqr/internal/models"
)

// Credentials is the cached central-server session.
type Credentials struct {
	Username string    `json:"username"`
	Token    string    `json:"token"`
	SavedAt  time.Time `json:"savedAt"`
}

const (
	credKeyIterations = 4096
	credKeyLen        = 32
)

// The passphrase is per-device, so a fixed salt only needs to separate this
// derivation from any other use of the same passphrase.
var credKeySalt = []byte("saritaqr/credentials/v1")

// CredentialCache keeps the session encrypted at rest. Handhelds get lost;
// a database dump from a stolen device must not yield a usable token.
type CredentialCache struct {
	kv  KV
	key []byte
}

func NewCredentialCache(kv KV, passphrase string) *CredentialCache {
	return &CredentialCache{
		kv:  kv,
		key: pbkdf2.Key([]byte(passphrase), credKeySalt, credKeyIterations, credKeyLen, sha256.New),
	}
}

func (c *CredentialCache) Set(creds Credentials) error {
	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	sealed, err := c.seal(plain)
	if err != nil {
		return fmt.Errorf("sealing credentials: %w", err)
	}
	return c.kv.Put(models.CacheKeyCredentials, sealed)
}

// Get returns nil without error when no session is cached.
func (c *CredentialCache) Get() (*Credentials, error) {
	var sealed string
	ok, err := c.kv.Get(models.CacheKeyCredentials, &sealed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	plain, err := c.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("opening credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}
	return &creds, nil
}

func (c *CredentialCache) Clear() error {
	return c.kv.Delete(models.CacheKeyCredentials)
}

// Token hands out the cached token for outgoing calls. It fails with
// ErrNotAuthenticated when nothing is cached and ErrSessionExpired when the
// token's exp claim has passed.
func (c *CredentialCache) Token() (string, error) {
	creds, err := c.Get()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrNotAuthenticated
	}
	if exp, ok := TokenExpiry(creds.Token); ok && time.Now().After(exp) {
		return "", ErrSessionExpired
	}
	return creds.Token, nil
}

func (c *CredentialCache) seal(plain []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := aesGCM.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *CredentialCache) open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(raw) < aesGCM.NonceSize() {
		return nil, errors.New("sealed blob too short")
	}
	nonce, ciphertext := raw[:aesGCM.NonceSize()], raw[aesGCM.NonceSize():]
	plain, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("invalid auth tag or corrupted data")
	}
	return plain, nil
}

// TokenExpiry reads the exp claim without verifying the signature. The agent
// never validates tokens itself; it only needs to know when to demand a
// fresh login instead of queueing calls that the server will reject.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
