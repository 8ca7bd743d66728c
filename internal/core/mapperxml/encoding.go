package mapperxml

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns data as UTF-8 together with the encoding named by its XML
// declaration. enc is nil when the document already is UTF-8. Offsets in a
// Snapshot refer to the decoded text.
func Decode(data []byte) (text []byte, enc encoding.Encoding, err error) {
	label := declaredEncoding(data)
	if label == "" {
		return data, nil, nil
	}
	enc, err = htmlindex.Get(label)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrMalformed, "unsupported encoding %q", label)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return data, nil, nil
	}
	text, err = enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrMalformed, "failed to decode %s: %v", label, err)
	}
	return text, enc, nil
}

// Encode converts UTF-8 text back to enc. A nil enc returns text as is.
func Encode(text []byte, enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return text, nil
	}
	out, err := enc.NewEncoder().Bytes(text)
	if err != nil {
		return nil, errors.Wrap(err, "text not representable in the document encoding")
	}
	return out, nil
}

// declaredEncoding returns the encoding pseudo-attribute of a leading XML
// declaration, or "".
func declaredEncoding(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !bytes.HasPrefix(data, []byte("<?xml")) {
		return ""
	}
	end := bytes.Index(data, []byte("?>"))
	if end < 0 {
		return ""
	}
	decl := data[len("<?xml"):end]
	i := bytes.Index(decl, []byte("encoding"))
	if i < 0 {
		return ""
	}
	rest := bytes.TrimLeft(decl[i+len("encoding"):], " \t\r\n")
	if len(rest) == 0 || rest[0] != '=' {
		return ""
	}
	rest = bytes.TrimLeft(rest[1:], " \t\r\n")
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	j := bytes.IndexByte(rest[1:], rest[0])
	if j < 0 {
		return ""
	}
	return string(rest[1 : 1+j])
}
