package mapperxml

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type depthMark struct {
	offset int
	delta  int
}

// Reindent normalizes the leading whitespace of every line after the first
// of the element starting at offset. Each line is indented by the opening
// line's indentation plus indent per level of nesting. The bytes before the
// first line break are never touched, so offset stays valid. It reports
// whether anything changed.
func Reindent(data []byte, offset int, indent string) ([]byte, bool) {
	if offset < 0 || offset >= len(data) || data[offset] != '<' {
		return data, false
	}
	end, marks, ok := scanElement(data, offset)
	if !ok {
		return data, false
	}
	firstBreak := bytes.IndexByte(data[offset:end], '\n')
	if firstBreak < 0 {
		return data, false
	}
	base := leadingIndent(data, offset)

	var out bytes.Buffer
	out.Grow(len(data))
	pos := offset + firstBreak + 1
	out.Write(data[:pos])
	changed := false

	for pos < end {
		lineEnd := bytes.IndexByte(data[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(data) - pos
		} else {
			lineEnd += pos
		}
		contentStart := pos
		for contentStart < lineEnd && (data[contentStart] == ' ' || data[contentStart] == '\t') {
			contentStart++
		}
		content := data[contentStart:lineEnd]
		if isBlank(content) {
			out.Write(data[pos:lineEnd])
		} else {
			depth := depthAt(marks, contentStart)
			if bytes.HasPrefix(content, []byte("</")) {
				depth--
			}
			if depth < 0 {
				depth = 0
			}
			want := base + strings.Repeat(indent, depth)
			if string(data[pos:contentStart]) != want {
				changed = true
			}
			out.WriteString(want)
			out.Write(content)
		}
		if lineEnd < len(data) {
			out.WriteByte('\n')
		}
		pos = lineEnd + 1
	}
	if pos < len(data) {
		out.Write(data[pos:])
	}
	if !changed {
		return data, false
	}
	return out.Bytes(), true
}

// scanElement finds the end of the element starting at offset and records
// where nesting depth changes: +1 after each start tag, -1 at each end tag.
func scanElement(data []byte, offset int) (int, []depthMark, bool) {
	dec := xml.NewDecoder(bytes.NewReader(data[offset:]))
	dec.Strict = false
	var marks []depthMark
	depth := 0
	for {
		before := offset + int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err != nil {
			return 0, nil, false
		}
		after := offset + int(dec.InputOffset())
		switch tok.(type) {
		case xml.StartElement:
			depth++
			marks = append(marks, depthMark{offset: after, delta: 1})
		case xml.EndElement:
			// Self-closing tags yield an EndElement at the same offset.
			depth--
			marks = append(marks, depthMark{offset: before, delta: -1})
		}
		if depth == 0 && len(marks) > 0 {
			return after, marks, true
		}
	}
}

func depthAt(marks []depthMark, offset int) int {
	depth := 0
	for _, m := range marks {
		if m.offset >= offset {
			break
		}
		depth += m.delta
	}
	return depth
}
