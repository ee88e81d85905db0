package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by domain so distinct entities never collide.
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

// DocumentUUID is the primary key of a stored document.
func DocumentUUID(collection, id string) uuid.UUID {
	return UUID("go-site:document:" + strings.TrimSpace(collection) + ":" + strings.TrimSpace(id))
}

// FixtureID is the document id assigned to a fixture that does not declare
// one. It is stable across runs so re-seeding overwrites instead of
// duplicating.
func FixtureID(kind, slug string) string {
	return UUID("go-site:fixture:" + strings.ToLower(strings.TrimSpace(kind)) + ":" + strings.ToLower(strings.TrimSpace(slug))).String()
}

// EventID identifies a telemetry event. The same key yields the same id so
// replays are idempotent.
func EventID(kind, key string) string {
	return UUID("go-site:event:" + strings.TrimSpace(kind) + ":" + strings.TrimSpace(key)).String()
}
