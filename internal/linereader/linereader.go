// Package linereader splits a definition file into lines of fields.
//
// Definition files are delimited text exported from spreadsheets. The
// delimiter is sniffed from the first line (semicolon, comma or tab, in that
// order of preference), fields are trimmed, and quoted fields follow the usual
// CSV rules. Blank lines are dropped; every returned line remembers its
// original line number so diagnostics can point at the source.
package linereader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Line is one non-blank source line.
type Line struct {
	// Number is the 1-based line number in the source file.
	Number int
	Fields []string
}

// Field returns the i-th field trimmed of surrounding whitespace, or "" when
// the line has fewer fields.
func (l Line) Field(i int) string {
	if i < 0 || i >= len(l.Fields) {
		return ""
	}
	return strings.TrimSpace(l.Fields[i])
}

// File is the ordered line sequence of a single definition file.
type File struct {
	Path  string
	Lines []Line
}

// Len returns the number of lines in f.
func (f *File) Len() int {
	return len(f.Lines)
}

// FromFields builds a File from already-split fields. Line numbers are
// assigned from the slice index.
func FromFields(path string, rows [][]string) *File {
	f := &File{Path: path, Lines: make([]Line, 0, len(rows))}
	for i, row := range rows {
		f.Lines = append(f.Lines, Line{Number: i + 1, Fields: row})
	}
	return f
}

// ReadFile reads and splits the file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()
	return Read(path, fh)
}

// Read splits the content of r. path is only used for labelling.
func Read(path string, r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	f := &File{Path: path}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to split %s: %w", path, err)
		}
		line, _ := cr.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		f.Lines = append(f.Lines, Line{Number: line, Fields: rec})
	}
	return f, nil
}

func skipBOM(br *bufio.Reader) error {
	b, err := br.Peek(3)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, err = br.Discard(3)
	}
	return err
}

// sniffDelimiter picks the delimiter that occurs most often on the first
// line. Ties prefer semicolon, then comma, then tab.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestN := ';', bytes.Count(head, []byte{';'})
	for _, c := range []rune{',', '\t'} {
		if n := bytes.Count(head, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
