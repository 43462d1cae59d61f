package workspace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

func logRecord(msg string) types.ConsoleRecord {
	return types.ConsoleRecord{Level: types.LevelLog, Message: msg}
}

func TestConsoleAppendAssignsSequence(t *testing.T) {
	c := NewConsole(10)

	stored := c.Append(logRecord("a"), logRecord("b"))
	require.Len(t, stored, 2)
	assert.Equal(t, uint64(1), stored[0].Seq)
	assert.Equal(t, uint64(2), stored[1].Seq)
	assert.False(t, stored[0].Time.IsZero())
	assert.Equal(t, uint64(2), c.LastSeq())

	assert.Nil(t, c.Append())
}

func TestConsoleRingEvictsOldest(t *testing.T) {
	c := NewConsole(3)
	for i := 1; i <= 5; i++ {
		c.Append(logRecord(fmt.Sprintf("m%d", i)))
	}

	records := c.Records(0)
	require.Len(t, records, 3)
	assert.Equal(t, "m3", records[0].Message)
	assert.Equal(t, "m4", records[1].Message)
	assert.Equal(t, "m5", records[2].Message)
}

func TestConsoleOversizedBatchKeepsNewest(t *testing.T) {
	c := NewConsole(3)
	var delivered []string
	c.Subscribe(func(r types.ConsoleRecord) { delivered = append(delivered, r.Message) })

	batch := make([]types.ConsoleRecord, 100)
	for i := range batch {
		batch[i] = logRecord(fmt.Sprintf("m%d", i))
	}
	stored := c.Append(batch...)

	require.Len(t, stored, 3)
	assert.Equal(t, "m97", stored[0].Message)
	assert.Equal(t, "m99", stored[2].Message)
	assert.Equal(t, []string{"m97", "m98", "m99"}, delivered)
	assert.Len(t, c.Records(0), 3)
	assert.Equal(t, 3, c.Capacity())
}

func TestConsoleRecordsSince(t *testing.T) {
	c := NewConsole(10)
	for i := 1; i <= 4; i++ {
		c.Append(logRecord(fmt.Sprintf("m%d", i)))
	}

	records := c.Records(2)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(3), records[0].Seq)
	assert.Empty(t, c.Records(4))
}

func TestConsoleClearKeepsSequence(t *testing.T) {
	c := NewConsole(10)
	c.Append(logRecord("a"), logRecord("b"))

	c.Clear()
	assert.Empty(t, c.Records(0))

	stored := c.Append(logRecord("c"))
	assert.Equal(t, uint64(3), stored[0].Seq)
}

func TestConsoleDefaultCapacity(t *testing.T) {
	c := NewConsole(0)
	for i := 0; i < DefaultConsoleLimit+10; i++ {
		c.Append(logRecord("x"))
	}
	assert.Len(t, c.Records(0), DefaultConsoleLimit)
}

func TestConsoleSubscribeReceivesInOrder(t *testing.T) {
	c := NewConsole(100)

	var mu sync.Mutex
	var seqs []uint64
	unsubscribe := c.Subscribe(func(r types.ConsoleRecord) {
		mu.Lock()
		seqs = append(seqs, r.Seq)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Append(logRecord("x"))
			}
		}()
	}
	wg.Wait()
	unsubscribe()
	c.Append(logRecord("after"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seqs, 100)
	for i, seq := range seqs {
		assert.Equal(t, uint64(i+1), seq)
	}
}
