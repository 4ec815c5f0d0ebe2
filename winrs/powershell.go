package winrs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// clixmlHeader prefixes stderr when PowerShell serializes its error stream.
const clixmlHeader = "#< CLIXML"

// EncodePowerShell returns script as base64 of its UTF-16LE encoding, the
// form powershell.exe expects after -EncodedCommand.
func EncodePowerShell(script string) (string, error) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(script)
	if err != nil {
		return "", fmt.Errorf("winrs: encode script: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(encoded)), nil
}

// RunPowerShell runs script through powershell -encodedcommand. CLIXML on
// stderr is reduced to plain error text.
func (s *Shell) RunPowerShell(ctx context.Context, script string) (*Process, error) {
	encoded, err := EncodePowerShell(script)
	if err != nil {
		return nil, err
	}

	proc, err := s.Run(ctx, "powershell", "-encodedcommand", encoded)
	if err != nil {
		return nil, err
	}

	proc.mapStderr(CleanCLIXML)
	return proc, nil
}

// CleanCLIXML extracts the error strings from a CLIXML stderr payload.
// Anything that is not CLIXML, or that fails to parse, is returned as is.
func CleanCLIXML(stderr []byte) []byte {
	if !bytes.HasPrefix(stderr, []byte(clixmlHeader)) {
		return stderr
	}
	payload := bytes.TrimLeft(stderr[len(clixmlHeader):], "\r\n")

	var (
		out     strings.Builder
		inError bool
	)
	dec := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stderr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			inError = t.Name.Local == "S" && attr(t, "S") == "Error"
		case xml.CharData:
			if inError {
				out.WriteString(strings.ReplaceAll(string(t), "_x000D__x000A_", "\n"))
			}
		case xml.EndElement:
			inError = false
		}
	}

	cleaned := strings.TrimSpace(out.String())
	if cleaned == "" {
		return stderr
	}
	return []byte(cleaned)
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
