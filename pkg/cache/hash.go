package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a class-namespaced key: <class>:<sha256(parts)>. The
// class prefix keeps source and artifact entries apart even when their
// key components collide, and the full digest makes keys safe to derive
// from untrusted document content.
func hashKey(class string, parts ...any) string {
	payload, _ := json.Marshal(parts)
	sum := sha256.Sum256(payload)
	return class + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 digest of data. Shared by the keyers and
// the file cache's on-disk layout.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
