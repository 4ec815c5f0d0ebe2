package wsman

import (
	"encoding/xml"
	"strings"

	"github.com/google/uuid"
)

// Envelope is a SOAP 1.2 envelope carrying a WS-Management request.
//
// Element names carry their prefixes literally; the matching xmlns
// declarations are emitted as attributes on the root.
type Envelope struct {
	XMLName xml.Name `xml:"s:Envelope"`

	NsSoap    string `xml:"xmlns:s,attr"`
	NsAddr    string `xml:"xmlns:a,attr"`
	NsWsman   string `xml:"xmlns:w,attr"`
	NsMsWsman string `xml:"xmlns:p,attr"`
	NsShellNs string `xml:"xmlns:rsp,attr,omitempty"`

	Header *Header `xml:"s:Header"`
	Body   *Body   `xml:"s:Body"`
}

// Header holds the WS-Addressing and WS-Management headers.
type Header struct {
	Action    string   `xml:"a:Action,omitempty"`
	To        string   `xml:"a:To,omitempty"`
	MessageID string   `xml:"a:MessageID,omitempty"`
	ReplyTo   *ReplyTo `xml:"a:ReplyTo,omitempty"`

	ResourceURI      string     `xml:"w:ResourceURI,omitempty"`
	MaxEnvelopeSize  *SizeValue `xml:"w:MaxEnvelopeSize,omitempty"`
	OperationTimeout string     `xml:"w:OperationTimeout,omitempty"`
	Locale           *Locale    `xml:"w:Locale,omitempty"`
	DataLocale       *Locale    `xml:"p:DataLocale,omitempty"`
	SessionID        *SessionID `xml:"p:SessionId,omitempty"`

	SelectorSet *SelectorSet `xml:"w:SelectorSet,omitempty"`
	OptionSet   *OptionSet   `xml:"w:OptionSet,omitempty"`
}

// ReplyTo is the WS-Addressing ReplyTo element.
type ReplyTo struct {
	Address Address `xml:"a:Address"`
}

// Address is a WS-Addressing address with its mustUnderstand flag.
type Address struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Value          string `xml:",chardata"`
}

// SizeValue is a header value flagged mustUnderstand.
type SizeValue struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr"`
	Value          int    `xml:",chardata"`
}

// Locale is a w:Locale or p:DataLocale header.
type Locale struct {
	Lang           string `xml:"xml:lang,attr"`
	MustUnderstand string `xml:"s:mustUnderstand,attr"`
}

// SessionID is the Microsoft p:SessionId header.
type SessionID struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr"`
	Value          string `xml:",chardata"`
}

// SelectorSet targets a specific resource instance.
type SelectorSet struct {
	Selectors []Selector `xml:"w:Selector"`
}

// Selector is a single name/value selector.
type Selector struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// OptionSet carries operation options.
type OptionSet struct {
	Options []Option `xml:"w:Option"`
}

// Option is a single named option.
type Option struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// Body is the raw SOAP body.
type Body struct {
	Content []byte `xml:",innerxml"`
}

// NewEnvelope returns an envelope with the standard namespace declarations.
func NewEnvelope() *Envelope {
	return &Envelope{
		NsSoap:    NsSoap,
		NsAddr:    NsAddressing,
		NsWsman:   NsWsman,
		NsMsWsman: NsWsmanMicrosoft,
		Header:    &Header{},
		Body:      &Body{},
	}
}

// NewMessageID returns a fresh "uuid:" prefixed message identifier.
func NewMessageID() string {
	return "uuid:" + strings.ToUpper(uuid.New().String())
}

// WithAction sets the Action header.
func (e *Envelope) WithAction(action string) *Envelope {
	e.Header.Action = action
	return e
}

// WithTo sets the To header (the endpoint URL).
func (e *Envelope) WithTo(to string) *Envelope {
	e.Header.To = to
	return e
}

// WithMessageID sets the MessageID header.
func (e *Envelope) WithMessageID(messageID string) *Envelope {
	e.Header.MessageID = messageID
	return e
}

// WithReplyTo sets the ReplyTo address.
func (e *Envelope) WithReplyTo(address string) *Envelope {
	e.Header.ReplyTo = &ReplyTo{Address: Address{MustUnderstand: "true", Value: address}}
	return e
}

// WithResourceURI sets the ResourceURI header.
func (e *Envelope) WithResourceURI(uri string) *Envelope {
	e.Header.ResourceURI = uri
	return e
}

// WithMaxEnvelopeSize sets the MaxEnvelopeSize header.
func (e *Envelope) WithMaxEnvelopeSize(size int) *Envelope {
	e.Header.MaxEnvelopeSize = &SizeValue{MustUnderstand: "true", Value: size}
	return e
}

// WithOperationTimeout sets the OperationTimeout header as an ISO 8601
// duration, e.g. "PT60S".
func (e *Envelope) WithOperationTimeout(timeout string) *Envelope {
	e.Header.OperationTimeout = timeout
	return e
}

// WithLocale sets both Locale and DataLocale to lang.
func (e *Envelope) WithLocale(lang string) *Envelope {
	e.Header.Locale = &Locale{Lang: lang, MustUnderstand: "false"}
	e.Header.DataLocale = &Locale{Lang: lang, MustUnderstand: "false"}
	return e
}

// WithSessionID sets the Microsoft SessionId header.
func (e *Envelope) WithSessionID(id string) *Envelope {
	e.Header.SessionID = &SessionID{MustUnderstand: "false", Value: id}
	return e
}

// WithShellNamespace declares the rsp prefix on the envelope.
func (e *Envelope) WithShellNamespace() *Envelope {
	e.NsShellNs = NsShell
	return e
}

// WithSelector appends a selector.
func (e *Envelope) WithSelector(name, value string) *Envelope {
	if e.Header.SelectorSet == nil {
		e.Header.SelectorSet = &SelectorSet{}
	}
	e.Header.SelectorSet.Selectors = append(e.Header.SelectorSet.Selectors,
		Selector{Name: name, Value: value})
	return e
}

// WithSelectors appends every selector of an endpoint reference.
func (e *Envelope) WithSelectors(epr *EndpointReference) *Envelope {
	for _, s := range epr.Selectors {
		e.WithSelector(s.Name, s.Value)
	}
	return e
}

// WithOption appends an option.
func (e *Envelope) WithOption(name, value string) *Envelope {
	if e.Header.OptionSet == nil {
		e.Header.OptionSet = &OptionSet{}
	}
	e.Header.OptionSet.Options = append(e.Header.OptionSet.Options, Option{Name: name, Value: value})
	return e
}

// WithBody sets the raw body content.
func (e *Envelope) WithBody(content []byte) *Envelope {
	e.Body.Content = content
	return e
}

// Marshal serializes the envelope.
func (e *Envelope) Marshal() ([]byte, error) {
	return xml.Marshal(e)
}
