// Package id provides centralized ID generation for the backend.
//
// IDs are prefixed ULIDs:
//   - Lexicographic sortability: workspaces list in creation order
//   - Prefixed types: ws_*, req_*, cmp_* make logs readable
//   - Type safety: separate types prevent ID misuse
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WorkspaceID identifies a sandbox workspace
type WorkspaceID string

// RequestID identifies an API request
type RequestID string

// CompileID identifies a single compile/execute run of a workspace
type CompileID string

const (
	WorkspacePrefix = "ws"
	RequestPrefix   = "req"
	CompilePrefix   = "cmp"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewWorkspaceID generates a new workspace ID
func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(Default().GenerateWithPrefix(WorkspacePrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewCompileID generates a new compile ID
func NewCompileID() CompileID {
	return CompileID(Default().GenerateWithPrefix(CompilePrefix))
}

func (id WorkspaceID) String() string { return string(id) }
func (id RequestID) String() string   { return string(id) }
func (id CompileID) String() string   { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidPrefixed checks that id has the form "<prefix>_<ulid>"
func IsValidPrefixed(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// Timestamp extracts the creation time from a plain or prefixed ULID
func Timestamp(id string) (time.Time, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
