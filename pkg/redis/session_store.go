package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// SessionKeyPrefix namespaces encrypted session payloads.
const SessionKeyPrefix = "session:"

// SessionStore keeps AES-GCM encrypted JSON payloads in Redis.
type SessionStore struct {
	encryptionKey []byte
}

var (
	setSessionValue      = Set
	getSessionValue      = Get
	delSessionValue      = Del
	marshalSessionJSON   = json.Marshal
	unmarshalSessionJSON = json.Unmarshal
)

// NewSessionStore creates a new session store
func NewSessionStore(encryptionKeyHex string) (*SessionStore, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	return &SessionStore{encryptionKey: key}, nil
}

// Save encrypts value and stores it under the session id
func (s *SessionStore) Save(ctx context.Context, sessionID string, value interface{}, expiration time.Duration) error {
	jsonData, err := marshalSessionJSON(value)
	if err != nil {
		return err
	}

	encryptedData, err := s.encrypt(jsonData)
	if err != nil {
		return err
	}

	return setSessionValue(ctx, SessionKeyPrefix+sessionID, encryptedData, expiration)
}

// Load decrypts the payload of a session into dest. A missing session
// returns an error matching IsNil.
func (s *SessionStore) Load(ctx context.Context, sessionID string, dest interface{}) error {
	encryptedDataStr, err := getSessionValue(ctx, SessionKeyPrefix+sessionID)
	if err != nil {
		return err
	}

	decryptedData, err := s.decrypt(encryptedDataStr)
	if err != nil {
		return err
	}

	return unmarshalSessionJSON(decryptedData, dest)
}

// Delete removes a session from Redis
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return delSessionValue(ctx, SessionKeyPrefix+sessionID)
}

func (s *SessionStore) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

func (s *SessionStore) decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
