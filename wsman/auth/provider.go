package auth

import "context"

// SecurityProvider runs the client side of a GSS-style token exchange.
//
// Implementations are not safe for concurrent use. The flow is:
//  1. Step(nil) returns the initial token.
//  2. The token is sent to the server, which may answer with a challenge.
//  3. Step(challenge) returns the next token.
//  4. Repeat until continueNeeded is false.
type SecurityProvider interface {
	// Step consumes the server's token (nil on the first call) and returns
	// the token to send next.
	Step(ctx context.Context, inputToken []byte) (outputToken []byte, continueNeeded bool, err error)

	// Complete reports whether the security context is established.
	Complete() bool

	// Close releases any resources held by the context.
	Close() error
}
