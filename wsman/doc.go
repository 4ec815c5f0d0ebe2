// Package wsman implements the subset of WS-Management that a Windows Remote
// Shell client needs: Create and Delete for shells, and Command, Receive and
// Signal for the commands running inside them.
//
// Requests are SOAP 1.2 envelopes built with Envelope and posted through a
// Poster, normally a *transport.HTTPTransport wrapped by one of the
// authenticators in the auth subpackage. SOAP faults come back as *Fault.
package wsman
