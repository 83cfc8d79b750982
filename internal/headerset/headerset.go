// Package headerset implements the ordered, case-insensitive header
// collection the data model calls HeaderSet. It is a plain sequence, not
// a hash map: every case-insensitive lookup is a linear scan of the
// entries in write order.
package headerset

import (
	"sort"
	"strings"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

// Entry is a single name/value pair in write order.
type Entry struct {
	Name  string
	Value string
}

// Set is an ordered sequence of header entries with case-insensitive
// lookup. Duplicates are preserved in write order.
type Set struct {
	entries []Entry
}

// New returns an empty header set.
func New() *Set {
	return &Set{}
}

// Add appends name/value, validating against CR/LF injection.
func (s *Set) Add(name, value string) error {
	if err := validate(name, value); err != nil {
		return err
	}
	s.entries = append(s.entries, Entry{Name: name, Value: value})
	return nil
}

// Set replaces every existing occurrence of name with a single value.
func (s *Set) Set(name, value string) error {
	if err := validate(name, value); err != nil {
		return err
	}
	s.Del(name)
	s.entries = append(s.entries, Entry{Name: name, Value: value})
	return nil
}

// Del removes every entry matching name (case-insensitive).
func (s *Set) Del(name string) {
	out := s.entries[:0]
	for _, e := range s.entries {
		if !strings.EqualFold(e.Name, name) {
			out = append(out, e)
		}
	}
	s.entries = out
}

// Get returns the first value for name, and whether it was present.
func (s *Set) Get(name string) (string, bool) {
	for _, e := range s.entries {
		if strings.EqualFold(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns every value for name in write order.
func (s *Set) Values(name string) []string {
	var out []string
	for _, e := range s.entries {
		if strings.EqualFold(e.Name, name) {
			out = append(out, e.Value)
		}
	}
	return out
}

// Has reports whether name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Entries returns the underlying sequence in write order. Callers must
// not mutate the returned slice's backing array.
func (s *Set) Entries() []Entry {
	return s.entries
}

// Len returns the number of entries, including duplicates.
func (s *Set) Len() int {
	return len(s.entries)
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return New()
	}
	clone := &Set{entries: make([]Entry, len(s.entries))}
	copy(clone.entries, s.entries)
	return clone
}

// managedNames are the header names the engine computes and overwrites
// on send even if the caller supplied a value.
var managedNames = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
	"Accept-Encoding",
	"Upgrade",
	"Sec-WebSocket-Key",
	"Sec-WebSocket-Version",
	"Sec-WebSocket-Accept",
	"Sec-WebSocket-Protocol",
}

// IsManaged reports whether name is a reserved, engine-managed header.
func IsManaged(name string) bool {
	for _, m := range managedNames {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// StripManaged removes every managed header from the user-supplied set so
// the engine can overlay its own computed values without duplicates.
func (s *Set) StripManaged() {
	out := s.entries[:0]
	for _, e := range s.entries {
		if !IsManaged(e.Name) {
			out = append(out, e)
		}
	}
	s.entries = out
}

// SortedNames returns the distinct header names in the set, sorted, for
// deterministic diagnostics (e.g. header dumps in tests).
func (s *Set) SortedNames() []string {
	seen := make(map[string]struct{}, len(s.entries))
	var out []string
	for _, e := range s.entries {
		key := strings.ToLower(e.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

func validate(name, value string) error {
	if name == "" {
		return httperr.New(httperr.CodeMalformedHeader, "header name is empty")
	}
	if strings.ContainsAny(name, "\r\n") || strings.ContainsAny(value, "\r\n") {
		return httperr.New(httperr.CodeMalformedHeader, "header %q contains CR or LF", name)
	}
	return nil
}
