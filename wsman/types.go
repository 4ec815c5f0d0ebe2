package wsman

// EndpointReference identifies a shell created on the server.
type EndpointReference struct {
	Address     string
	ResourceURI string
	Selectors   []Selector
}

// ShellID returns the ShellId selector value, or "" if absent.
func (e *EndpointReference) ShellID() string {
	if e == nil {
		return ""
	}
	for _, sel := range e.Selectors {
		if sel.Name == "ShellId" {
			return sel.Value
		}
	}
	return ""
}

// ReceiveResult is the output collected by a single Receive call.
type ReceiveResult struct {
	Stdout       []byte
	Stderr       []byte
	CommandState string
	ExitCode     int

	// Done is set once the server reports the command finished.
	Done bool
}
