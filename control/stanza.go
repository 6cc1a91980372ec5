package control

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/dpkgdb/dpkgerr"
)

// Field is one name/value pair of a Stanza, in the order it was parsed
// or inserted.
type Field struct {
	Name  string
	Value string
}

// Stanza is one control-file record: an ordered sequence of fields,
// looked up case-insensitively. Field order is preserved so a Stanza
// round-trips through Write without reordering a hand-authored
// control file.
type Stanza struct {
	fields []Field
	index  map[string]int // lower-cased name -> index into fields
}

// NewStanza returns an empty Stanza.
func NewStanza() *Stanza {
	return &Stanza{index: make(map[string]int)}
}

// Get returns the value of the named field (case-insensitive) and
// whether it was present.
func (s *Stanza) Get(name string) (string, bool) {
	i, ok := s.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return s.fields[i].Value, true
}

// Set adds name/value, or replaces the value of an already-present
// field, preserving its original position and cased name.
func (s *Stanza) Set(name, value string) {
	key := strings.ToLower(name)
	if i, ok := s.index[key]; ok {
		s.fields[i].Value = value
		return
	}
	s.index[key] = len(s.fields)
	s.fields = append(s.fields, Field{Name: name, Value: value})
}

// Fields returns every field in original order.
func (s *Stanza) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// scanLine splits on "\n", "\r\n" or a lone "\r", matching the control
// file readers' tolerance for foreign line endings.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' {
			return i + 1, data[:i], nil
		}
		if b == '\r' {
			if i+1 < len(data) && data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			if i+1 < len(data) || atEOF {
				return i + 1, data[:i], nil
			}
			return 0, nil, nil // need more data to know if \r\n follows
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ParseStanzas reads every stanza from r. Stanzas are separated by one
// or more blank lines; a DOS end-of-file marker (^Z, 0x1A) truncates
// the input at the byte it appears, matching dpkg's tolerance for
// control files that have passed through DOS tooling.
func ParseStanzas(r io.Reader, filename string) ([]*Stanza, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, dpkgerr.Wrap(err, "read %s", filename)
	}
	if i := bytes.IndexByte(raw, 0x1A); i >= 0 {
		raw = raw[:i]
	}

	var stanzas []*Stanza
	cur := NewStanza()
	var curName string
	var curValue strings.Builder
	lineNo := 0
	empty := true

	flush := func() {
		if curName != "" {
			val := strings.TrimRight(curValue.String(), " \t")
			cur.Set(curName, val)
			curName = ""
			curValue.Reset()
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	sc.Split(scanLine)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			if !empty {
				stanzas = append(stanzas, cur)
				cur = NewStanza()
				empty = true
			}
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if curName == "" {
				return nil, dpkgerr.NewParse(filename, lineNo, 1, dpkgerr.ReasonBadValue,
					"continuation line with no preceding field")
			}
			cont := line[1:]
			if cont == "." {
				cont = ""
			}
			curValue.WriteString("\n")
			curValue.WriteString(cont)
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, dpkgerr.NewParse(filename, lineNo, 1, dpkgerr.ReasonBadValue,
				"expected a colon in field %q", line)
		}
		flush()
		name := strings.TrimSpace(line[:colon])
		if name == "" {
			return nil, dpkgerr.NewParse(filename, lineNo, 1, dpkgerr.ReasonBadControlName,
				"empty field name")
		}
		if _, dup := cur.Get(name); dup {
			return nil, dpkgerr.NewParse(filename, lineNo, 1, dpkgerr.ReasonDuplicateField,
				"duplicate field %q", name)
		}
		curName = name
		curValue.WriteString(strings.TrimSpace(line[colon+1:]))
		empty = false
	}
	if err := sc.Err(); err != nil {
		return nil, dpkgerr.Wrap(err, "scan %s", filename)
	}
	flush()
	if !empty {
		stanzas = append(stanzas, cur)
	}
	return stanzas, nil
}

// Write serializes stanza in field order, folding multi-line values
// onto continuation lines prefixed with a single space, using "."  to
// represent an embedded blank line.
func (s *Stanza) Write(w io.Writer) error {
	for _, f := range s.fields {
		lines := strings.Split(f.Value, "\n")
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.Name, lines[0]); err != nil {
			return err
		}
		for _, l := range lines[1:] {
			if l == "" {
				l = "."
			}
			if _, err := fmt.Fprintf(w, " %s\n", l); err != nil {
				return err
			}
		}
	}
	return nil
}
