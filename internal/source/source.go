// Package source loads a source file and tokenizes it line by line,
// carrying tokenizer state across lines. Adapted from the teacher's
// internal/disasm LineSet/LineRange helpers (loov-lensm) and from
// TracySourceView.cpp's ParseSource.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/feiyunwill/tracy/internal/syntax"
)

// ErrSourceUnavailable is returned when the source file can't be opened,
// read, or falls outside the configured size cap. Callers should render
// assembly-only and surface a warning, per spec §7.
var ErrSourceUnavailable = errors.New("source: file unavailable")

// DefaultMaxBytes bounds how much of a source file is read into memory,
// resolving spec.md's Open Question about unbounded reads.
const DefaultMaxBytes = 32 << 20 // 32 MiB

// Line is one line of source: its raw bytes (a slice of File.Buffer) and
// its tokens.
type Line struct {
	Bytes  []byte
	Tokens []syntax.Token
}

// File is the loaded, tokenized contents of one source file.
type File struct {
	Path   string
	Buffer []byte
	Lines  []Line
}

// Options configures Load.
type Options struct {
	// MaxBytes caps how large a file Load will read. Zero means
	// DefaultMaxBytes.
	MaxBytes int64
	// Substitute resolves the caller-visible path to a path this
	// process can read. Nil means no substitution.
	Substitute func(path string) string
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxBytes
}

// Load reads path (after substitution), splits it into lines on
// \n, \r\n or \r, and tokenizes each line with a fresh tokenizer state.
// An empty path is not an error: it returns an empty File.
func Load(path string, opts Options) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	resolved := path
	if opts.Substitute != nil {
		resolved = opts.Substitute(path)
	}

	data, err := readCapped(resolved, opts.maxBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	f := &File{Path: path, Buffer: data}
	var state syntax.State
	for _, raw := range splitLines(data) {
		f.Lines = append(f.Lines, Line{
			Bytes:  raw,
			Tokens: syntax.Tokenize(raw, &state),
		})
	}
	return f, nil
}

func readCapped(path string, max int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > max {
		return nil, fmt.Errorf("file size %d exceeds limit %d", info.Size(), max)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// splitLines splits data on \n, \r\n or \r without allocating new
// backing arrays: each returned slice aliases data. A terminator at the
// very end of data does not start a further, empty line; empty data
// yields a single empty line.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			lines = append(lines, data[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, data[start:i])
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(data) || len(lines) == 0 {
		lines = append(lines, data[start:])
	}
	return lines
}

// TokenText returns the raw bytes a token covers within l.
func (l Line) TokenText(t syntax.Token) []byte {
	return l.Bytes[t.Start:t.End]
}

// Text returns the line's contents as a string.
func (l Line) Text() string {
	return string(l.Bytes)
}

// Equal reports whether two loaded files have byte-identical contents,
// used to assert Load's idempotence.
func (f *File) Equal(other *File) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Path == other.Path && bytes.Equal(f.Buffer, other.Buffer)
}
