package imaging

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/fathom-chat/contextd/internal/turn"
)

// hashKeyBytes is how much of the blake3 digest goes into the hex key.
// 16 bytes is far beyond what session-scoped dedup needs.
const hashKeyBytes = 16

// HashBytes returns the content hash used for dedup and cache keys: a
// truncated blake3 digest over the full payload. Hashing everything, not
// just a prefix, avoids false-positive duplicates between distinct images
// that share an encoder header.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:hashKeyBytes])
}

// EnsureHash fills in ref.Hash if it is empty, hashing inline bytes when
// present and falling back to the URL for remote-only refs.
func EnsureHash(ref *turn.ImageRef) {
	if ref.Hash != "" {
		return
	}
	if len(ref.Data) > 0 {
		ref.Hash = HashBytes(ref.Data)
		return
	}
	if ref.URL != "" {
		ref.Hash = HashBytes([]byte(ref.URL))
	}
}
