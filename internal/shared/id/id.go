// Package id provides typed, prefixed ULID generation.
//
// Task, session, view and request identifiers are opaque strings to the
// orchestration core. When the backend mints one itself (new tasks, views in
// the in-memory tab registry, request ids) it uses a prefixed ULID so logs stay
// readable and ids sort by creation time.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TaskID identifies a conversation
type TaskID string

// SessionID identifies a UI thread instance
type SessionID string

// ViewID identifies a native browsing surface
type ViewID string

// RequestID identifies an API request
type RequestID string

const (
	TaskPrefix    = "task"
	SessionPrefix = "sess"
	ViewPrefix    = "view"
	RequestPrefix = "req"
)

// Generator produces monotonic ULIDs from a shared entropy source
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator. Passing a deterministic reader makes the
// random part reproducible in tests.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Next returns a new ULID
func (g *Generator) Next() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// Prefixed returns "<prefix>_<ulid>"
func (g *Generator) Prefixed(prefix string) string {
	return prefix + "_" + g.Next().String()
}

func NewTaskID() TaskID       { return TaskID(Default().Prefixed(TaskPrefix)) }
func NewSessionID() SessionID { return SessionID(Default().Prefixed(SessionPrefix)) }
func NewViewID() ViewID       { return ViewID(Default().Prefixed(ViewPrefix)) }
func NewRequestID() RequestID { return RequestID(Default().Prefixed(RequestPrefix)) }

func (id TaskID) String() string    { return string(id) }
func (id SessionID) String() string { return string(id) }
func (id ViewID) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }

// Split separates a prefixed id into prefix and ULID part. Ids without a
// prefix return an empty prefix.
func Split(s string) (prefix, raw string) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// IsValid reports whether s (prefixed or not) carries a valid ULID
func IsValid(s string) bool {
	_, raw := Split(s)
	_, err := ulid.ParseStrict(raw)
	return err == nil
}

// Timestamp extracts the creation time encoded in an id
func Timestamp(s string) (time.Time, error) {
	_, raw := Split(s)
	parsed, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
