package livesession

import (
	"sync"

	"github.com/jinzhu/copier"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one coalesced utterance. Entries only alternate role
// when the speaker actually changes; consecutive fragments from the same
// speaker grow the last entry in place.
type TranscriptEntry struct {
	Role Role
	Text string
}

// transcript assembles interleaved transcript deltas into per-turn
// utterances. Role changes are inferred purely from which delta stream fired
// last; there is no explicit turn boundary signal. Overlapping speech can
// therefore be attributed to the wrong turn, which is accepted rather than
// guessed around.
type transcript struct {
	mu      sync.Mutex
	entries []TranscriptEntry
}

// appendDelta applies the greedy coalescing rule: extend the last entry when
// the role matches, start a new entry otherwise.
func (t *transcript) appendDelta(role Role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.entries); n > 0 && t.entries[n-1].Role == role {
		t.entries[n-1].Text += text
		return
	}
	t.entries = append(t.entries, TranscriptEntry{Role: role, Text: text})
}

// Entries returns an immutable snapshot; the live transcript keeps growing
// independently.
func (t *transcript) Entries() []TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := []TranscriptEntry{}
	if err := copier.Copy(&entries, &t.entries); err != nil {
		entries = make([]TranscriptEntry, len(t.entries))
		copy(entries, t.entries)
	}
	return entries
}

func (t *transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
