package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const keyPrefix = "go-editorial:"

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// UserUUID returns the stable identifier for a seeded account handle.
func UserUUID(handle string) uuid.UUID {
	return UUID(keyPrefix + "user:" + strings.ToLower(strings.TrimSpace(handle)))
}

// ContentUUID returns the stable identifier for a seeded item slug.
func ContentUUID(slug string) uuid.UUID {
	return UUID(keyPrefix + "content:" + strings.ToLower(strings.TrimSpace(slug)))
}
