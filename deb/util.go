package deb

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blakesmith/ar"

	"github.com/etnz/dpkgdb/version"
)

// countingWriter wraps an io.Writer and counts the bytes written.
// It is typically used to calculate the size of a file or archive entry
// as it is being written.
type countingWriter struct {
	w io.Writer
	n int64
}

// Write writes p to the underlying io.Writer and increments the byte count.
func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// addBufferToAr writes a named byte slice as a file entry to the AR archive.
// It constructs the AR header with mode 0644 and the current timestamp.
func addBufferToAr(w *ar.Writer, name string, body []byte) error {
	header := &ar.Header{
		Name:    name,
		Size:    int64(len(body)),
		Mode:    0644,
		ModTime: time.Now(),
	}
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// parseControlFile parses the content of a Debian control file and populates the Metadata struct.
// It handles standard fields mapping to struct fields and puts unknown fields into ExtraFields.
// It also handles multiline values (folded fields).
func parseControlFile(content string, m *Metadata) error {
	var currentKey string
	var currentValue strings.Builder

	flush := func() {
		if currentKey != "" {
			val := strings.TrimSpace(currentValue.String())
			switch ControlField(currentKey) {
			case FieldPackage:
				m.Package = val
			case FieldVersion:
				m.Version = val
			case FieldArchitecture:
				m.Architecture = val
			case FieldMaintainer:
				m.Maintainer = val
			case FieldDescription:
				m.Description = val
			case FieldSection:
				m.Section = val
			case FieldPriority:
				m.Priority = val
			case FieldHomepage:
				m.Homepage = val
			case FieldEssential:
				m.Essential = (val == "yes")
			case FieldDepends:
				m.Depends = splitList(val)
			case FieldPreDepends:
				m.PreDepends = splitList(val)
			case FieldRecommends:
				m.Recommends = splitList(val)
			case FieldSuggests:
				m.Suggests = splitList(val)
			case FieldEnhances:
				m.Enhances = splitList(val)
			case FieldConflicts:
				m.Conflicts = splitList(val)
			case FieldBreaks:
				m.Breaks = splitList(val)
			case FieldReplaces:
				m.Replaces = splitList(val)
			case FieldProvides:
				m.Provides = splitList(val)
			case FieldBuiltUsing:
				m.BuiltUsing = val
			case FieldSource:
				m.Source = val
			case FieldInstalledSize:
				//ignore installed size when reading

			default:
				m.ExtraFields[currentKey] = val
			}
		}
	}

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			currentValue.WriteString("\n" + line)
		} else if strings.Contains(line, ":") {
			flush()
			parts := strings.SplitN(line, ":", 2)
			currentKey = parts[0]
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(parts[1]))
		}
	}
	flush()
	return nil
}

// splitList splits a comma-separated string into a slice of strings, trimming whitespace from each element.
// It returns nil if the input string is empty.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var res []string
	for _, p := range parts {
		res = append(res, strings.TrimSpace(p))
	}
	return res
}

// BumpVersion increments the iteration number of a Debian version string,
// parsed with version.Parse so the epoch and upstream parts round-trip
// unchanged. The strategy below yields a version that Debian sorting
// rules order after v; the result is not compared against v.
//
// Strategy, applied to the revision:
//  1. If there is no revision, set it to "1".
//  2. If the revision is purely numeric, increment it (e.g. "1.0-1" -> "1.0-2").
//  3. Otherwise, find the last alphanumeric character in the revision and bump it
//     using the range 0-9, a-z. (e.g. "1.0-1a" -> "1.0-1b", "1.0-1.9" -> "1.0-1.a").
//     If the character is 'z', '0' is appended ("1.0-1z" -> "1.0-1z0").
//
// If v does not parse as a Debian version, it falls back to plain
// hyphen-splitting so that a malformed input still yields a plausible
// bumped string instead of an error.
func BumpVersion(v string) string {
	parsed, err := version.Parse(v)
	if err != nil {
		return bumpVersionRaw(v)
	}
	parsed.Revision = bumpRevision(parsed.Revision)
	return parsed.String()
}

func bumpRevision(rev string) string {
	if rev == "" {
		return "1"
	}
	if i, err := strconv.Atoi(rev); err == nil {
		return strconv.Itoa(i + 1)
	}

	runes := []rune(rev)
	for i := len(runes) - 1; i >= 0; i-- {
		c := runes[i]
		if c >= '0' && c < '9' {
			runes[i]++
			return string(runes)
		}
		if c == '9' {
			runes[i] = 'a'
			return string(runes)
		}
		if c >= 'a' && c < 'z' {
			runes[i]++
			return string(runes)
		}
		if c == 'z' {
			return string(runes[:i+1]) + "0" + string(runes[i+1:])
		}
	}
	return rev + "1"
}

func bumpVersionRaw(v string) string {
	idx := strings.LastIndex(v, "-")
	if idx == -1 {
		return v + "-1"
	}
	return v[:idx+1] + bumpRevision(v[idx+1:])
}
