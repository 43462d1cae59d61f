package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Len(t, gen.GenerateString(), 26)
}

func TestGenerateIsMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.GenerateString()
	for i := 0; i < 100; i++ {
		next := gen.GenerateString()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestTypedIDGeneration(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"workspace", NewWorkspaceID().String(), WorkspacePrefix},
		{"request", NewRequestID().String(), RequestPrefix},
		{"compile", NewCompileID().String(), CompilePrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.id, tt.prefix+"_"), tt.id)
			assert.True(t, IsValidPrefixed(tt.id, tt.prefix))
		})
	}
}

func TestIsValidPrefixed(t *testing.T) {
	assert.False(t, IsValidPrefixed("ws_not-a-ulid", WorkspacePrefix))
	assert.False(t, IsValidPrefixed(NewRequestID().String(), WorkspacePrefix))
	assert.False(t, IsValidPrefixed("", WorkspacePrefix))
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	wsID := NewWorkspaceID()

	ts, err := Timestamp(wsID.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("ws_garbage")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := NewWorkspaceID().String()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
