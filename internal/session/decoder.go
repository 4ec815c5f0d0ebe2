package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Decoder turns remote output bytes into text.
type Decoder struct {
	name string
	enc  encoding.Encoding
}

// NewDecoder returns a decoder for the named encoding. An empty name
// selects the terminal's encoding from the locale environment.
func NewDecoder(name string) (*Decoder, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncodingName(os.Getenv)
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return &Decoder{name: name, enc: enc}, nil
}

// Name returns the encoding name the decoder was created with.
func (d *Decoder) Name() string {
	return d.name
}

// Decode decodes b. Invalid UTF-8 is an error under the UTF-8 encoding;
// single-byte encodings map every byte and never fail.
func (d *Decoder) Decode(b []byte) (string, error) {
	if d.enc == unicode.UTF8 {
		if !utf8.Valid(b) {
			return "", &DecodeError{Encoding: d.name, Offset: firstInvalid(b), Err: errInvalidUTF8}
		}
		return string(b), nil
	}

	out, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", &DecodeError{Encoding: d.name, Offset: -1, Err: err}
	}
	return string(out), nil
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	candidates := []string{strings.TrimSpace(name)}
	if n, ok := codePage(name); ok {
		candidates = append(candidates, "windows-"+n, "ibm"+n)
		if n == "65001" {
			candidates = append(candidates, "utf-8")
		}
	}

	for _, c := range candidates {
		if enc, err := ianaindex.IANA.Encoding(c); err == nil && enc != nil {
			return enc, nil
		}
		if enc, err := htmlindex.Get(c); err == nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// codePage extracts the number from Windows code page spellings such as
// cp1252, cp-1252 or 1252.
func codePage(name string) (string, bool) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "cp")
	s = strings.TrimLeft(s, "-_")
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

// DefaultEncodingName derives the terminal encoding from LC_ALL, LC_CTYPE
// and LANG, in that order. It falls back to UTF-8.
func DefaultEncodingName(getenv func(string) string) string {
	for _, v := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		locale := getenv(v)
		if locale == "" {
			continue
		}
		// language_territory.codeset@modifier
		if i := strings.IndexByte(locale, '@'); i >= 0 {
			locale = locale[:i]
		}
		if i := strings.IndexByte(locale, '.'); i >= 0 && i < len(locale)-1 {
			codeset := locale[i+1:]
			if _, err := lookupEncoding(codeset); err == nil {
				return codeset
			}
		}
		break
	}
	return "UTF-8"
}
