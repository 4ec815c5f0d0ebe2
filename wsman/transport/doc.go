// Package transport posts WS-Management envelopes over HTTP or HTTPS.
//
// Authentication is layered on by wrapping Client().Transport with an
// authenticator from the auth package. Status codes map to ErrUnauthorized,
// ErrForbidden or *StatusError so callers can classify failures.
package transport
