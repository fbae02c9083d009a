// Package swaps reads the kernel's table of active swap areas.
package swaps

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ProcSwaps is the kernel-provided listing of active swap areas.
const ProcSwaps = "/proc/swaps"

// maxLineLength bounds a single line of the listing. The kernel escapes a
// path of at most PATH_MAX bytes to four bytes per byte.
const maxLineLength = 64 * 1024

// Entry is one active swap area.
// All fields hold the decoded bytes of the kernel's output and are not
// guaranteed to be valid UTF-8.
type Entry struct {
	Source   []byte
	Kind     []byte
	Size     []byte
	Used     []byte
	Priority []byte
}

func (e Entry) clone() Entry {
	return Entry{
		Source:   bytes.Clone(e.Source),
		Kind:     bytes.Clone(e.Kind),
		Size:     bytes.Clone(e.Size),
		Used:     bytes.Clone(e.Used),
		Priority: bytes.Clone(e.Priority),
	}
}

// Table is a snapshot of the swap listing. It is never modified after
// construction and is safe for concurrent reads.
type Table struct {
	entries []Entry
}

// Load reads the swap table from /proc/swaps.
func Load() (*Table, error) {
	return LoadFile(ProcSwaps)
}

// LoadFile reads a swap table in /proc/swaps format from path.
func LoadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads a swap table in /proc/swaps format from r.
// The first line is the column header and is skipped.
// Any malformed line fails the whole parse.
func Parse(r io.Reader) (*Table, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		entry, err := parseLine(scanner.Bytes())
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); errors.Is(err, bufio.ErrTooLong) {
		return nil, fmt.Errorf("parsing line %d: %w: %w", lineNo+1, ErrMalformedRecord, err)
	} else if err != nil {
		return nil, fmt.Errorf("%w: reading line %d: %w", ErrSourceUnavailable, lineNo+1, err)
	}
	return &Table{entries: entries}, nil
}

// GetSwapped reports whether path is the source of an active swap area.
// The comparison is byte for byte; path is not cleaned or resolved.
func (t *Table) GetSwapped(path string) bool {
	_, ok := t.lookup(path)
	return ok
}

// Lookup returns a copy of the first entry whose source is path.
func (t *Table) Lookup(path string) (Entry, bool) {
	entry, ok := t.lookup(path)
	if !ok {
		return Entry{}, false
	}
	return entry.clone(), true
}

func (t *Table) lookup(path string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	for _, entry := range t.entries {
		if string(entry.Source) == path {
			return entry, true
		}
	}
	return Entry{}, false
}

// Len returns the number of active swap areas.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of all entries in file order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	entries := make([]Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		entries = append(entries, entry.clone())
	}
	return entries
}
