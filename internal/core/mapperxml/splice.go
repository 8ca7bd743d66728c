package mapperxml

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/example/mapgen/internal/core/statement"
)

var bodyEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// RenderElement renders spec as a single element. Lines of a multi-line body
// after the first are prefixed with indent.
func RenderElement(spec statement.ElementSpec, indent string) string {
	var b strings.Builder
	tag := spec.Kind.Tag()
	b.WriteByte('<')
	b.WriteString(tag)
	writeAttr(&b, "id", spec.ID)
	for _, a := range spec.Attributes {
		writeAttr(&b, a.Name, a.Value)
	}
	b.WriteByte('>')
	body := bodyEscaper.Replace(spec.Body)
	if indent != "" && strings.Contains(body, "\n") {
		body = strings.ReplaceAll(body, "\n", "\n"+indent)
	}
	b.WriteString(body)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(value))
	b.Write(esc.Bytes())
	b.WriteByte('"')
}

// Append inserts rendered as the last child of the root and returns the new
// document and the offset of the inserted element's '<'. The close tag keeps
// its own line when it has one; otherwise it is moved to a new line.
func Append(data []byte, snap *Snapshot, rendered string) ([]byte, int, error) {
	if snap == nil {
		return nil, 0, errors.New("append: nil snapshot")
	}
	if snap.CloseOffset <= snap.RootStart || snap.CloseOffset > len(data) {
		return nil, 0, errors.Newf("append: close offset %d out of range", snap.CloseOffset)
	}
	nl := snap.LineEnding
	if nl == "" {
		nl = "\n"
	}
	element := strings.ReplaceAll(rendered, "\r\n", "\n")
	if nl != "\n" {
		element = strings.ReplaceAll(element, "\n", nl)
	}
	close := snap.CloseOffset

	var out bytes.Buffer
	out.Grow(len(data) + len(element) + len(snap.Indent) + 2*len(nl) + len(RootElement) + 3)

	if snap.SelfClosing {
		if !bytes.HasPrefix(data[close:], []byte("/>")) {
			return nil, 0, errors.New("append: snapshot does not match document")
		}
		out.Write(data[:close])
		out.WriteString(">" + nl + snap.Indent)
		offset := out.Len()
		out.WriteString(element + nl + snap.RootIndent + "</" + RootElement + ">")
		out.Write(data[close+2:])
		return out.Bytes(), offset, nil
	}

	if !bytes.HasPrefix(data[close:], []byte("</")) {
		return nil, 0, errors.New("append: snapshot does not match document")
	}
	lineStart := bytes.LastIndexByte(data[:close], '\n') + 1
	if lineStart > snap.RootStart && isBlank(data[lineStart:close]) {
		out.Write(data[:lineStart])
		out.WriteString(snap.Indent)
		offset := out.Len()
		out.WriteString(element + nl)
		out.Write(data[lineStart:])
		return out.Bytes(), offset, nil
	}

	out.Write(data[:close])
	out.WriteString(nl + snap.Indent)
	offset := out.Len()
	out.WriteString(element + nl + snap.RootIndent)
	out.Write(data[close:])
	return out.Bytes(), offset, nil
}
