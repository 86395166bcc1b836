package task

import (
	"crypto/sha256"
	"encoding/hex"
)

// PseudonymizeName replaces a task name with its SHA-256 hex digest.
// Used when a deployment enables privacy mode so real task titles
// never reach the store. The transform is deterministic, so
// re-imports of the same record still hit the same upserted row with
// the same stored name.
//
// An empty name is returned unchanged: the transform must never
// null-out a present value or fail the import.
func PseudonymizeName(name string) string {
	if name == "" {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}
