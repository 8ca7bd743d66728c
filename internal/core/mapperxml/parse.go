// Package mapperxml reads and splices mapper XML documents at the byte level.
// Every byte outside an inserted element is preserved, so an edit never
// reorders attributes, drops comments or rewrites the DOCTYPE.
// This is part of the Functional Core - it works on byte slices only.
package mapperxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/example/mapgen/internal/core/statement"
)

// RootElement is the element name every mapper document is rooted at.
const RootElement = "mapper"

// DefaultIndent is used when the document has no child to copy from.
const DefaultIndent = "    "

var (
	// ErrMalformed is returned for input that is not well-formed XML.
	ErrMalformed = errors.New("malformed mapper xml")
	// ErrNotMapper is returned when the root element is not <mapper>.
	ErrNotMapper = errors.New("not a mapper document")
)

// Statement is one select, insert, update or delete child of the root.
type Statement struct {
	ID      string
	Tag     string
	Kind    statement.OperationKind
	Body    string // raw inner XML
	Start   int    // offset of '<'
	End     int    // offset after the closing '>'
	NameEnd int    // offset just past the tag name
	Line    int
	Column  int
}

// Snapshot is the parsed view of a mapper document.
type Snapshot struct {
	Namespace   string
	Statements  []Statement
	RootStart   int
	CloseOffset int // start of "</mapper>", or of "/>" for a self-closing root
	SelfClosing bool
	Indent      string // indentation of the root's children
	RootIndent  string // indentation of the root start line
	LineEnding  string
	Duplicates  []string
}

// Find returns the first statement with id.
func (s *Snapshot) Find(id string) (Statement, bool) {
	for _, st := range s.Statements {
		if st.ID == id {
			return st, true
		}
	}
	return Statement{}, false
}

// IDs returns the statement ids in document order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, len(s.Statements))
	for i, st := range s.Statements {
		ids[i] = st.ID
	}
	return ids
}

// Parse reads data into a Snapshot. data must be UTF-8; a document declared
// in another encoding goes through Decode first.
func Parse(data []byte) (*Snapshot, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	// The declaration may still name the original encoding.
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if _, err := htmlindex.Get(label); err != nil {
			return nil, errors.Newf("unsupported encoding %q", label)
		}
		return input, nil
	}

	snap := &Snapshot{LineEnding: "\n"}
	if bytes.Contains(data, []byte("\r\n")) {
		snap.LineEnding = "\r\n"
	}

	var (
		depth     int
		rootSeen  bool
		rootDone  bool
		indentSet bool
		current   *Statement
		bodyStart int
		seen      = map[string]int{}
	)

	for {
		before := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%v", err)
		}
		after := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if rootSeen {
					return nil, errors.Wrap(ErrMalformed, "multiple root elements")
				}
				if t.Name.Local != RootElement {
					return nil, errors.Wrapf(ErrNotMapper, "root element is <%s>", t.Name.Local)
				}
				rootSeen = true
				snap.RootStart = before
				snap.RootIndent = leadingIndent(data, before)
				snap.Namespace = attr(t, "namespace")
				if after >= 2 && string(data[after-2:after]) == "/>" {
					snap.SelfClosing = true
					snap.CloseOffset = after - 2
				}
				continue
			}
			if depth != 2 {
				continue
			}
			if !indentSet {
				if ind := leadingIndent(data, before); ind != "" {
					snap.Indent = ind
				}
				indentSet = true
			}
			kind := statement.OperationKind(t.Name.Local)
			if !kind.Valid() {
				continue
			}
			line, col := Position(data, before)
			current = &Statement{
				ID:      attr(t, "id"),
				Tag:     t.Name.Local,
				Kind:    kind,
				Start:   before,
				NameEnd: before + 1 + len(t.Name.Local),
				Line:    line,
				Column:  col,
			}
			bodyStart = after

		case xml.EndElement:
			if depth == 1 {
				if !snap.SelfClosing {
					snap.CloseOffset = before
				}
				rootDone = true
			}
			if depth == 2 && current != nil {
				if before > bodyStart {
					current.Body = string(data[bodyStart:before])
				}
				current.End = after
				seen[current.ID]++
				if seen[current.ID] == 2 {
					snap.Duplicates = append(snap.Duplicates, current.ID)
				}
				snap.Statements = append(snap.Statements, *current)
				current = nil
			}
			depth--
		}
	}

	if !rootSeen {
		return nil, errors.Wrap(ErrNotMapper, "no root element")
	}
	if !rootDone {
		return nil, errors.Wrap(ErrMalformed, "unterminated root element")
	}
	if snap.Indent == "" {
		snap.Indent = snap.RootIndent + DefaultIndent
	}
	return snap, nil
}

// Position returns the 1-based line and column of offset. Columns count
// characters, not bytes.
func Position(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte("\n")) + 1
	lineStart := bytes.LastIndexByte(prefix, '\n') + 1
	col = utf8.RuneCount(prefix[lineStart:]) + 1
	return line, col
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// leadingIndent returns the whitespace between the start of the line and
// offset, or "" when anything else precedes offset on that line.
func leadingIndent(data []byte, offset int) string {
	lineStart := bytes.LastIndexByte(data[:offset], '\n') + 1
	ws := data[lineStart:offset]
	if !isBlank(ws) {
		return ""
	}
	return string(ws)
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
