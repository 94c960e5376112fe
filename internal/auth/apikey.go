package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// GenerateAPIKey - 32 случайных байта в hex и их SHA-256 для хранения
func GenerateAPIKey() (plain, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate api key: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, HashAPIKey(plain), nil
}

func HashAPIKey(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// CheckAPIKey сравнивает ключ с сохраненным хэшем за постоянное время
func CheckAPIKey(plain, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashAPIKey(plain)), []byte(hash)) == 1
}
