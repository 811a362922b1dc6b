package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func ReadJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func GenerateUUID() string {
	return uuid.New().String()
}

// MaskKey returns a loggable label for a secret: its last four characters and a short
// fingerprint that stays stable across restarts.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "<empty>"
	}

	sum := sha256.Sum256([]byte(key))
	fingerprint := hex.EncodeToString(sum[:])[:8]

	if len(key) <= 8 {
		return "***@" + fingerprint
	}
	return "***" + key[len(key)-4:] + "@" + fingerprint
}
