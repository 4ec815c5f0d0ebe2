package winrs

import "errors"

var (
	// ErrShellClosed is returned when a command is started on a deleted shell.
	ErrShellClosed = errors.New("winrs: shell is closed")

	// ErrInvalidExecutable is returned for an empty command name.
	ErrInvalidExecutable = errors.New("winrs: invalid executable")
)
