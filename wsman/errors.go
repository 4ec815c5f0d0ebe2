package wsman

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// WS-Management fault subcodes the client reacts to.
const (
	SubcodeAccessDenied = "w:AccessDenied"
	SubcodeTimedOut     = "w:TimedOut"
)

// Windows error codes carried in a WSManFault detail.
const (
	codeAccessDenied = 5    // ERROR_ACCESS_DENIED
	codeLogonFailure = 1326 // ERROR_LOGON_FAILURE
)

// Fault is a SOAP fault raised by the WinRM service.
type Fault struct {
	Code    string // SOAP code, e.g. "s:Sender"
	Subcode string // WS-Management subcode, e.g. "w:TimedOut"
	Reason  string

	// WinRMCode and Message come from the WSManFault detail, when present.
	WinRMCode uint32
	Message   string
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString("wsman fault")
	for _, part := range []string{f.Code, f.Subcode, f.text()} {
		if part != "" {
			b.WriteString(": ")
			b.WriteString(part)
		}
	}
	if f.WinRMCode != 0 {
		fmt.Fprintf(&b, " (code %d)", f.WinRMCode)
	}
	return b.String()
}

// text prefers the detail message, which names the actual problem, over
// the generic reason.
func (f *Fault) text() string {
	if f.Message != "" {
		return f.Message
	}
	return f.Reason
}

// IsAccessDenied reports whether the service refused the caller.
func (f *Fault) IsAccessDenied() bool {
	return hasSubcode(f.Subcode, SubcodeAccessDenied) ||
		f.WinRMCode == codeAccessDenied || f.WinRMCode == codeLogonFailure
}

// IsTimeout reports whether a Receive ran into the operation timeout
// without new output.
func (f *Fault) IsTimeout() bool {
	return hasSubcode(f.Subcode, SubcodeTimedOut)
}

// hasSubcode compares subcodes ignoring the namespace prefix the server
// happened to choose.
func hasSubcode(got, want string) bool {
	local := func(s string) string {
		if i := strings.IndexByte(s, ':'); i >= 0 {
			return s[i+1:]
		}
		return s
	}
	return got != "" && local(got) == local(want)
}

// ParseFault returns the fault in a SOAP response, or nil, nil when data
// is not a fault.
func ParseFault(data []byte) (*Fault, error) {
	if !bytes.Contains(data, []byte("Fault")) {
		return nil, nil
	}

	var env faultEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse fault: %w", err)
	}
	f := env.Body.Fault
	if f.Code.Value == "" {
		return nil, nil
	}

	return &Fault{
		Code:      strings.TrimSpace(f.Code.Value),
		Subcode:   strings.TrimSpace(f.Code.Subcode.Value),
		Reason:    strings.TrimSpace(f.Reason.Text),
		WinRMCode: f.Detail.WSManFault.Code,
		Message:   strings.TrimSpace(f.Detail.WSManFault.Message),
	}, nil
}

type faultEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault struct {
			Code struct {
				Value   string `xml:"Value"`
				Subcode struct {
					Value string `xml:"Value"`
				} `xml:"Subcode"`
			} `xml:"Code"`
			Reason struct {
				Text string `xml:"Text"`
			} `xml:"Reason"`
			Detail struct {
				WSManFault struct {
					Code    uint32 `xml:"Code,attr"`
					Message string `xml:"Message"`
				} `xml:"WSManFault"`
			} `xml:"Detail"`
		} `xml:"Fault"`
	} `xml:"Body"`
}
