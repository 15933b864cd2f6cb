// Package index persists Navigation, Menu and Association indexes as
// newline-delimited JSON. A navigation index has two segments: text-input
// fields first, then actionable elements, separated by Sentinel.
package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/state"
)

// Sentinel separates the text-field segment from the actionable segment.
const Sentinel = "# --- ACTIONABLE ELEMENTS BELOW ---"

// ErrNotFound is returned by Load when no index file exists.
var ErrNotFound = errors.New("index: not found")

// Index is an ordered, wholesale-replaced descriptor sequence.
type Index struct {
	Fields   []model.Descriptor `json:"fields,omitempty" yaml:"fields,omitempty"`
	Elements []model.Descriptor `json:"elements" yaml:"elements"`
}

// All returns fields followed by elements: the stored order.
func (ix Index) All() []model.Descriptor {
	out := make([]model.Descriptor, 0, len(ix.Fields)+len(ix.Elements))
	out = append(out, ix.Fields...)
	return append(out, ix.Elements...)
}

// Len returns the total descriptor count.
func (ix Index) Len() int { return len(ix.Fields) + len(ix.Elements) }

// Encode writes ix. The sentinel is written only when there are fields.
func Encode(w io.Writer, ix Index) error {
	bw := bufio.NewWriter(w)
	if len(ix.Fields) > 0 {
		if err := writeLines(bw, ix.Fields); err != nil {
			return err
		}
		if _, err := bw.WriteString(Sentinel + "\n"); err != nil {
			return err
		}
	}
	if err := writeLines(bw, ix.Elements); err != nil {
		return err
	}
	return bw.Flush()
}

func writeLines(w *bufio.Writer, ds []model.Descriptor) error {
	for _, d := range ds {
		line, err := marshalLine(d)
		if err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

func marshalLine(d model.Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode descriptor %q: %w", d.Label, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode reads an index written by Encode. Blank lines and "#" comments
// other than the sentinel are ignored. Without a sentinel every record is
// an element.
func Decode(r io.Reader) (Index, error) {
	var (
		ix      Index
		current []model.Descriptor
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == Sentinel {
			ix.Fields = current
			current = nil
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var d model.Descriptor
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return Index{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		current = append(current, d)
	}
	if err := sc.Err(); err != nil {
		return Index{}, err
	}
	ix.Elements = current
	return ix, nil
}

// Store reads and writes index files under a directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the absolute path for an index file name.
func (s *Store) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named index is on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads the named index, or returns ErrNotFound.
func (s *Store) Load(name string) (Index, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Index{}, ErrNotFound
		}
		return Index{}, err
	}
	defer f.Close()
	ix, err := Decode(f)
	if err != nil {
		return Index{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return ix, nil
}

// Save atomically replaces the named index.
func (s *Store) Save(name string, ix Index) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ix); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := state.AtomicWrite(s.Path(name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Remove deletes the named index if present.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
