package wsman

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/smnsjas/go-winrm-console/wsman/transport"
)

const (
	defaultMaxEnvelopeSize = 153600
	defaultLocale          = "en-US"
)

// Poster sends a SOAP request body to url and returns the response body.
// *transport.HTTPTransport implements it.
type Poster interface {
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// Client talks WS-Management to a single WinRM endpoint.
type Client struct {
	endpoint         string
	transport        Poster
	sessionID        string
	operationTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithOperationTimeout sets the server-side OperationTimeout sent with
// every request. Receive polls return early when it elapses.
func WithOperationTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.operationTimeout = d
		}
	}
}

// NewClient creates a WS-Management client for endpoint.
func NewClient(endpoint string, tr Poster, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:         endpoint,
		transport:        tr,
		sessionID:        NewMessageID(),
		operationTimeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ShellSpec describes a shell to create.
type ShellSpec struct {
	// ResourceURI selects the shell plugin. Defaults to ResourceURIWinRS.
	ResourceURI string

	// Options are sent in the OptionSet header (e.g. WINRS_CODEPAGE).
	Options map[string]string

	WorkingDirectory string
	Environment      map[string]string

	// IdleTimeout is an ISO 8601 duration, e.g. "PT1800S".
	IdleTimeout string
}

// Create creates a shell and returns its endpoint reference.
func (c *Client) Create(ctx context.Context, spec ShellSpec) (*EndpointReference, error) {
	resourceURI := spec.ResourceURI
	if resourceURI == "" {
		resourceURI = ResourceURIWinRS
	}

	env := c.newEnvelope(ActionCreate, resourceURI)

	// Sorted so requests are deterministic.
	names := make([]string, 0, len(spec.Options))
	for name := range spec.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env.WithOption(name, spec.Options[name])
	}

	body := shellBody{
		InputStreams:     "stdin",
		OutputStreams:    "stdout stderr",
		WorkingDirectory: spec.WorkingDirectory,
		IdleTimeOut:      spec.IdleTimeout,
	}
	if len(spec.Environment) > 0 {
		vars := make([]string, 0, len(spec.Environment))
		for name := range spec.Environment {
			vars = append(vars, name)
		}
		sort.Strings(vars)
		body.Environment = &environmentBody{}
		for _, name := range vars {
			body.Environment.Variables = append(body.Environment.Variables,
				variable{Name: name, Value: spec.Environment[name]})
		}
	}

	payload, err := xml.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal shell: %w", err)
	}
	env.WithBody(payload)

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("create shell: %w", err)
	}

	var resp createResponse
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}

	created := resp.Body.ResourceCreated
	epr := &EndpointReference{
		Address:     created.Address,
		ResourceURI: created.ReferenceParameters.ResourceURI,
		Selectors:   created.ReferenceParameters.SelectorSet.Selectors,
	}
	if epr.ResourceURI == "" {
		epr.ResourceURI = resourceURI
	}
	if len(epr.Selectors) == 0 && resp.Body.Shell.ShellID != "" {
		epr.Selectors = []Selector{{Name: "ShellId", Value: resp.Body.Shell.ShellID}}
	}
	if epr.ShellID() == "" {
		return nil, errors.New("create shell: response carried no ShellId")
	}

	return epr, nil
}

// Command starts executable with arguments in the shell and returns the
// server-assigned command ID.
func (c *Client) Command(ctx context.Context, epr *EndpointReference, executable, arguments string) (string, error) {
	env := c.newEnvelope(ActionCommand, epr.ResourceURI).
		WithSelectors(epr).
		WithOption("WINRS_CONSOLEMODE_STDIN", "TRUE").
		WithOption("WINRS_SKIP_CMD_SHELL", "FALSE")

	payload, err := xml.Marshal(commandLineBody{Command: executable, Arguments: arguments})
	if err != nil {
		return "", fmt.Errorf("marshal command line: %w", err)
	}
	env.WithBody(payload)

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return "", fmt.Errorf("create command: %w", err)
	}

	var resp commandResponse
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse command response: %w", err)
	}
	if resp.Body.CommandResponse.CommandID == "" {
		return "", errors.New("create command: response carried no CommandId")
	}

	return resp.Body.CommandResponse.CommandID, nil
}

// Receive polls a command's stdout and stderr once. A server-side operation
// timeout yields an empty, not-done result so the caller can poll again.
func (c *Client) Receive(ctx context.Context, epr *EndpointReference, commandID string) (*ReceiveResult, error) {
	env := c.newEnvelope(ActionReceive, epr.ResourceURI).
		WithSelectors(epr).
		WithOption("WSMAN_CMDSHELL_OPTION_KEEPALIVE", "TRUE")

	payload, err := xml.Marshal(receiveBody{DesiredStream: desiredStream{
		CommandID: commandID,
		Streams:   "stdout stderr",
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal receive: %w", err)
	}
	env.WithBody(payload)

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		var fault *Fault
		if errors.As(err, &fault) && fault.IsTimeout() {
			return &ReceiveResult{}, nil
		}
		return nil, fmt.Errorf("receive: %w", err)
	}

	var resp receiveResponse
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse receive response: %w", err)
	}

	result := &ReceiveResult{}
	for _, stream := range resp.Body.ReceiveResponse.Streams {
		content := strings.TrimSpace(stream.Content)
		if content == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decode %s stream: %w", stream.Name, err)
		}
		switch stream.Name {
		case "stdout":
			result.Stdout = append(result.Stdout, decoded...)
		case "stderr":
			result.Stderr = append(result.Stderr, decoded...)
		}
	}

	state := resp.Body.ReceiveResponse.CommandState
	result.CommandState = state.State
	if state.ExitCode != nil {
		result.ExitCode = *state.ExitCode
	}
	result.Done = state.State == CommandStateDone || strings.HasSuffix(state.State, "/Done")

	return result, nil
}

// Signal sends a signal code to a command.
func (c *Client) Signal(ctx context.Context, epr *EndpointReference, commandID, code string) error {
	env := c.newEnvelope(ActionSignal, epr.ResourceURI).WithSelectors(epr)

	payload, err := xml.Marshal(signalBody{CommandID: commandID, Code: code})
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	env.WithBody(payload)

	if _, err := c.sendEnvelope(ctx, env); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	return nil
}

// Delete deletes a shell.
func (c *Client) Delete(ctx context.Context, epr *EndpointReference) error {
	env := c.newEnvelope(ActionDelete, epr.ResourceURI).WithSelectors(epr)

	if _, err := c.sendEnvelope(ctx, env); err != nil {
		return fmt.Errorf("delete shell: %w", err)
	}
	return nil
}

func (c *Client) newEnvelope(action, resourceURI string) *Envelope {
	return NewEnvelope().
		WithAction(action).
		WithTo(c.endpoint).
		WithResourceURI(resourceURI).
		WithMessageID(NewMessageID()).
		WithReplyTo(AddressAnonymous).
		WithMaxEnvelopeSize(defaultMaxEnvelopeSize).
		WithOperationTimeout(formatDuration(c.operationTimeout)).
		WithLocale(defaultLocale).
		WithSessionID(c.sessionID).
		WithShellNamespace()
}

// sendEnvelope marshals env, posts it and surfaces SOAP faults as *Fault,
// including faults delivered with an HTTP 500 status.
func (c *Client) sendEnvelope(ctx context.Context, env *Envelope) ([]byte, error) {
	body, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	respBody, err := c.transport.Post(ctx, c.endpoint, body)
	if err != nil {
		var statusErr *transport.StatusError
		if errors.As(err, &statusErr) {
			if fault, parseErr := ParseFault(statusErr.Body); parseErr == nil && fault != nil {
				return nil, fault
			}
		}
		return nil, err
	}

	fault, err := ParseFault(respBody)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		return nil, fault
	}
	return respBody, nil
}

// formatDuration renders d as an ISO 8601 duration in whole seconds.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("PT%dS", int(d.Seconds()))
}

// Request bodies.

type shellBody struct {
	XMLName          xml.Name         `xml:"rsp:Shell"`
	InputStreams     string           `xml:"rsp:InputStreams"`
	OutputStreams    string           `xml:"rsp:OutputStreams"`
	WorkingDirectory string           `xml:"rsp:WorkingDirectory,omitempty"`
	Environment      *environmentBody `xml:"rsp:Environment,omitempty"`
	IdleTimeOut      string           `xml:"rsp:IdleTimeOut,omitempty"`
}

type environmentBody struct {
	Variables []variable `xml:"rsp:Variable"`
}

type variable struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

type commandLineBody struct {
	XMLName   xml.Name `xml:"rsp:CommandLine"`
	Command   string   `xml:"rsp:Command"`
	Arguments string   `xml:"rsp:Arguments,omitempty"`
}

type receiveBody struct {
	XMLName       xml.Name      `xml:"rsp:Receive"`
	DesiredStream desiredStream `xml:"rsp:DesiredStream"`
}

type desiredStream struct {
	CommandID string `xml:"CommandId,attr,omitempty"`
	Streams   string `xml:",chardata"`
}

type signalBody struct {
	XMLName   xml.Name `xml:"rsp:Signal"`
	CommandID string   `xml:"CommandId,attr"`
	Code      string   `xml:"rsp:Code"`
}

// Response bodies.

type createResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ResourceCreated struct {
			Address             string `xml:"Address"`
			ReferenceParameters struct {
				ResourceURI string `xml:"ResourceURI"`
				SelectorSet struct {
					Selectors []Selector `xml:"Selector"`
				} `xml:"SelectorSet"`
			} `xml:"ReferenceParameters"`
		} `xml:"ResourceCreated"`
		Shell struct {
			ShellID string `xml:"ShellId"`
		} `xml:"Shell"`
	} `xml:"Body"`
}

type commandResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		CommandResponse struct {
			CommandID string `xml:"CommandId"`
		} `xml:"CommandResponse"`
	} `xml:"Body"`
}

type receiveResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ReceiveResponse struct {
			Streams []struct {
				Name      string `xml:"Name,attr"`
				CommandID string `xml:"CommandId,attr"`
				Content   string `xml:",chardata"`
			} `xml:"Stream"`
			CommandState struct {
				CommandID string `xml:"CommandId,attr"`
				State     string `xml:"State,attr"`
				ExitCode  *int   `xml:"ExitCode"`
			} `xml:"CommandState"`
		} `xml:"ReceiveResponse"`
	} `xml:"Body"`
}
