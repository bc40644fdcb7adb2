package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultEncoding is the Windows code page used on the wire
const DefaultEncoding = "windows-1250"

// Codec encodes text to wire bytes and decodes wire bytes to text
type Codec interface {
	Name() string
	Encode(text string) ([]byte, error)
	Decode(data []byte) (string, error)
}

// aliases maps the spellings used by the Python and Java clients
// (cp1250, Cp1250) onto the x/text charmaps.
var aliases = map[string]encoding.Encoding{
	"windows-1250": charmap.Windows1250,
	"cp1250":       charmap.Windows1250,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"latin2":       charmap.ISO8859_2,
}

// Lookup resolves an encoding name to a Codec
func Lookup(name string) (Codec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("encoding name cannot be empty")
	}

	if key == "utf-8" || key == "utf8" {
		return utf8Codec{}, nil
	}

	if enc, ok := aliases[key]; ok {
		return &textCodec{name: key, enc: enc}, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}

	return &textCodec{name: key, enc: enc}, nil
}

// textCodec wraps a golang.org/x/text encoding
type textCodec struct {
	name string
	enc  encoding.Encoding
}

func (c *textCodec) Name() string { return c.name }

// Encode fails on characters the code page cannot represent
func (c *textCodec) Encode(text string) ([]byte, error) {
	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return out, nil
}

func (c *textCodec) Decode(data []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

type utf8Codec struct{}

func (utf8Codec) Name() string { return "utf-8" }

func (utf8Codec) Encode(text string) ([]byte, error) {
	return []byte(text), nil
}

func (utf8Codec) Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("decode utf-8: invalid byte sequence")
	}
	return string(data), nil
}
