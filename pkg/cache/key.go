package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
)

// diskRecordExt is the file extension of disk tier records.
const diskRecordExt = ".json"

// KeyForURL returns the cache key for a resolved request URL.
// Identity is the full absolute URL including its query string.
func KeyForURL(u *url.URL) (string, error) {
	if u == nil {
		return "", fmt.Errorf("%w: url cannot be nil", ErrInvalidKey)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidKey, u.String())
	}
	return u.String(), nil
}

// fileName derives a stable, filesystem-safe name for a key.
//
// Example:
//
//	https://api.example.com/v1/items?page=2 -> 3f1c...9a.json
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + diskRecordExt
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	return nil
}
