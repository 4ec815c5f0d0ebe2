package wsman

// XML namespaces used in WS-Management envelopes.
const (
	// NsSoap is the SOAP 1.2 envelope namespace.
	NsSoap = "http://www.w3.org/2003/05/soap-envelope"

	// NsAddressing is the WS-Addressing namespace.
	NsAddressing = "http://schemas.xmlsoap.org/ws/2004/08/addressing"

	// NsWsman is the DMTF WS-Management namespace.
	NsWsman = "http://schemas.dmtf.org/wbem/wsman/1/wsman.xsd"

	// NsWsmanMicrosoft is the Microsoft extension namespace (Locale, DataLocale).
	NsWsmanMicrosoft = "http://schemas.microsoft.com/wbem/wsman/1/wsman.xsd"

	// NsShell is the Windows Remote Shell namespace.
	NsShell = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell"
)

// AddressAnonymous is the WS-Addressing anonymous reply address.
const AddressAnonymous = "http://schemas.xmlsoap.org/ws/2004/08/addressing/role/anonymous"

// WS-Transfer actions.
const (
	// ActionCreate creates a shell.
	ActionCreate = "http://schemas.xmlsoap.org/ws/2004/09/transfer/Create"

	// ActionDelete deletes a shell.
	ActionDelete = "http://schemas.xmlsoap.org/ws/2004/09/transfer/Delete"
)

// Windows Remote Shell actions.
const (
	// ActionCommand starts a command inside a shell.
	ActionCommand = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Command"

	// ActionReceive reads a command's output streams.
	ActionReceive = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Receive"

	// ActionSignal sends a control signal to a command.
	ActionSignal = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Signal"
)

// Signal codes.
const (
	// SignalTerminate terminates a command and releases its resources.
	SignalTerminate = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/signal/terminate"

	// SignalCtrlC delivers a Ctrl-C to the command.
	SignalCtrlC = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/signal/ctrl_c"
)

// Command states reported in ReceiveResponse.
const (
	// CommandStateDone is reported once the command has exited.
	CommandStateDone = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/CommandState/Done"

	// CommandStateRunning is reported while output is still being produced.
	CommandStateRunning = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/CommandState/Running"
)

// ResourceURIWinRS addresses the cmd.exe shell plugin.
const ResourceURIWinRS = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/cmd"
