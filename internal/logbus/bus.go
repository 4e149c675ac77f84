// Package logbus provides the in-memory run log buffer.
//
// The bus is an append-only bounded buffer of structured log entries tagged
// by run/session id. The run controller appends; the HTTP layer polls
// Snapshot for the live stream. Fan-out holds no subscriber state here.
package logbus

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/eacar/amplify/internal/domain"
	"github.com/google/uuid"
)

// Capacity is the maximum number of retained entries. Appending beyond it
// evicts the oldest entries first.
const Capacity = 100

// SystemAccountID tags entries not attributable to a single account.
const SystemAccountID = "system"

// accountColors is the palette used for per-account display colors. The
// frontend renders these as terminal text classes.
var accountColors = []string{
	"text-blue-400",
	"text-green-400",
	"text-orange-400",
	"text-purple-400",
	"text-pink-400",
	"text-cyan-400",
	"text-yellow-400",
	"text-red-400",
}

// Bus is the bounded in-memory log buffer. Safe for concurrent use.
type Bus struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

// New creates an empty log bus.
func New() *Bus {
	return &Bus{entries: make([]domain.LogEntry, 0, Capacity)}
}

// Append creates a LogEntry with a generated id and current timestamp and
// appends it, evicting the oldest entries once the buffer exceeds Capacity.
// The created entry is returned.
func (b *Bus) Append(sessionID, accountID, accountName string, level domain.LogLevel, message string) domain.LogEntry {
	entry := domain.LogEntry{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		AccountID:    accountID,
		AccountName:  accountName,
		Level:        level,
		Message:      message,
		AccountColor: AccountColor(accountID),
		Timestamp:    time.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if len(b.entries) > Capacity {
		// FIFO eviction: keep the newest Capacity entries.
		b.entries = b.entries[len(b.entries)-Capacity:]
	}

	return entry
}

// Snapshot returns a copy of the current buffer contents in append order.
func (b *Bus) Snapshot() []domain.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Clear empties the buffer. Called at the start of each new run so unrelated
// runs' logs do not interleave in a fresh session view.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = b.entries[:0]
}

// Len returns the current number of buffered entries.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// AccountColor derives a stable display color from an account id. The system
// pseudo-account always maps to a neutral color.
func AccountColor(accountID string) string {
	if accountID == SystemAccountID || accountID == "" {
		return "text-slate-400"
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return accountColors[h.Sum32()%uint32(len(accountColors))]
}
