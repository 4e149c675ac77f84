package logbus

import (
	"fmt"
	"testing"

	"github.com/eacar/amplify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_GeneratesIDAndTimestamp(t *testing.T) {
	bus := New()

	entry := bus.Append("session-1", "acc-1", "alice", domain.LogInfo, "starting")

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, "session-1", entry.SessionID)
	assert.Equal(t, "alice", entry.AccountName)
	assert.Equal(t, AccountColor("acc-1"), entry.AccountColor)
	assert.Equal(t, 1, bus.Len())
}

func TestAppend_EvictsOldestBeyondCapacity(t *testing.T) {
	bus := New()

	for i := 0; i < Capacity+25; i++ {
		bus.Append("s", "acc-1", "alice", domain.LogInfo, fmt.Sprintf("msg-%d", i))
	}

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, Capacity)

	// Oldest 25 entries evicted; the first retained entry is msg-25.
	assert.Equal(t, "msg-25", snapshot[0].Message)
	assert.Equal(t, fmt.Sprintf("msg-%d", Capacity+24), snapshot[len(snapshot)-1].Message)
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	bus := New()
	bus.Append("s", "acc-1", "alice", domain.LogInfo, "one")

	snapshot := bus.Snapshot()
	snapshot[0].Message = "mutated"

	assert.Equal(t, "one", bus.Snapshot()[0].Message)
}

func TestClear_EmptiesBuffer(t *testing.T) {
	bus := New()
	bus.Append("s", "acc-1", "alice", domain.LogInfo, "one")
	bus.Append("s", "acc-2", "bob", domain.LogError, "two")

	bus.Clear()

	assert.Equal(t, 0, bus.Len())
	assert.Empty(t, bus.Snapshot())
}

func TestAccountColor_Deterministic(t *testing.T) {
	first := AccountColor("acc-42")
	second := AccountColor("acc-42")

	assert.Equal(t, first, second)
	assert.Equal(t, "text-slate-400", AccountColor(SystemAccountID))
	assert.Equal(t, "text-slate-400", AccountColor(""))
}
