package winrs

import (
	"context"

	"github.com/smnsjas/go-winrm-console/wsman"
)

// Transport is the set of shell verbs a Shell drives. *wsman.Client
// implements it; tests substitute a fake.
type Transport interface {
	Create(ctx context.Context, spec wsman.ShellSpec) (*wsman.EndpointReference, error)
	Command(ctx context.Context, epr *wsman.EndpointReference, executable, arguments string) (string, error)
	Receive(ctx context.Context, epr *wsman.EndpointReference, commandID string) (*wsman.ReceiveResult, error)
	Signal(ctx context.Context, epr *wsman.EndpointReference, commandID, code string) error
	Delete(ctx context.Context, epr *wsman.EndpointReference) error
}

var _ Transport = (*wsman.Client)(nil)
