package workspace

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/sandpad/internal/shared/listeners"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// DefaultConsoleLimit is the number of records kept when no limit is configured
const DefaultConsoleLimit = 1000

// ConsoleListener receives records in sequence order
type ConsoleListener func(record types.ConsoleRecord)

// Console is a fixed-capacity circular buffer of console records.
// It allows late subscribers to catch up on recent output.
type Console struct {
	emitMu   sync.Mutex // serialises Append so listeners observe Seq order
	mu       sync.RWMutex
	buf      []types.ConsoleRecord
	capacity int
	pos      int // next write position
	full     bool
	seq      uint64

	listeners listeners.Set[ConsoleListener]
}

// NewConsole creates a console buffer holding at most capacity records
func NewConsole(capacity int) *Console {
	if capacity <= 0 {
		capacity = DefaultConsoleLimit
	}
	return &Console{
		buf:      make([]types.ConsoleRecord, capacity),
		capacity: capacity,
	}
}

// Append stores records, assigning sequence numbers, and notifies listeners.
// A batch larger than the buffer keeps only its newest records; Append
// returns the records it kept. Listeners must not call Append.
func (c *Console) Append(records ...types.ConsoleRecord) []types.ConsoleRecord {
	if len(records) == 0 {
		return nil
	}
	if len(records) > c.capacity {
		records = records[len(records)-c.capacity:]
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	stored := make([]types.ConsoleRecord, len(records))
	for i, r := range records {
		c.seq++
		r.Seq = c.seq
		if r.Time.IsZero() {
			r.Time = time.Now()
		}
		c.buf[c.pos] = r
		c.pos = (c.pos + 1) % c.capacity
		if c.pos == 0 {
			c.full = true
		}
		stored[i] = r
	}
	c.mu.Unlock()

	ls := c.listeners.Snapshot()
	for _, r := range stored {
		for _, l := range ls {
			l(r)
		}
	}
	return stored
}

// Records returns buffered records with Seq > since, oldest first
func (c *Console) Records(since uint64) []types.ConsoleRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ordered []types.ConsoleRecord
	if c.full {
		ordered = make([]types.ConsoleRecord, 0, c.capacity)
		ordered = append(ordered, c.buf[c.pos:]...)
		ordered = append(ordered, c.buf[:c.pos]...)
	} else {
		ordered = c.buf[:c.pos]
	}

	result := make([]types.ConsoleRecord, 0, len(ordered))
	for _, r := range ordered {
		if r.Seq > since {
			result = append(result, r)
		}
	}
	return result
}

// Clear drops buffered records. Sequence numbers keep increasing.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf = make([]types.ConsoleRecord, c.capacity)
	c.pos = 0
	c.full = false
}

// LastSeq returns the sequence number of the newest record ever appended
func (c *Console) LastSeq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}

// Subscribe registers l and returns a function that removes it
func (c *Console) Subscribe(l ConsoleListener) func() {
	return c.listeners.Add(l)
}

// Capacity returns the number of records the buffer holds
func (c *Console) Capacity() int {
	return c.capacity
}
