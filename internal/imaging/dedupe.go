package imaging

import "github.com/fathom-chat/contextd/internal/turn"

// Deduplicate marks repeated image attachments across a window of turns.
// Scanning chronologically, the first occurrence of each hash keeps its
// bytes; later occurrences are marked IsDuplicate with the data dropped
// and the hash retained, so identical bytes are never sent twice.
//
// The operation is idempotent: already-marked duplicates stay marked and
// first occurrences are untouched.
func Deduplicate(turns []turn.Turn) []turn.Turn {
	turn.SortChronological(turns)

	seen := make(map[string]struct{})
	for i := range turns {
		for j := range turns[i].Attachments {
			ref := &turns[i].Attachments[j]
			EnsureHash(ref)
			if ref.Hash == "" {
				continue
			}
			if _, dup := seen[ref.Hash]; dup {
				ref.IsDuplicate = true
				ref.Data = nil
				continue
			}
			seen[ref.Hash] = struct{}{}
		}
	}
	return turns
}
