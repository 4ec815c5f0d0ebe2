// Package auth wraps an HTTP transport with WinRM authentication.
//
// NTLM is handled by github.com/Azure/go-ntlmssp. Kerberos runs through
// NegotiateAuth with a platform SecurityProvider: the pure Go krb5 library
// on Linux and macOS, and SSPI on Windows, where it can also authenticate as
// the logged-in user.
//
//	provider, err := auth.NewKerberosProvider(auth.KerberosProviderConfig{
//	    TargetSPN:   auth.DefaultSPN("server.corp.local"),
//	    Credentials: &auth.Credentials{Username: "alice@corp.local", Password: pw},
//	})
//	authn := auth.NewNegotiateAuth(provider)
//	httpClient.Transport = authn.Transport(httpClient.Transport)
package auth
