package auth

import "strings"

// KerberosProviderConfig configures the platform Kerberos provider.
type KerberosProviderConfig struct {
	// TargetSPN is the service principal, e.g. "HTTP/server.domain.com".
	TargetSPN string

	// Realm is the Kerberos realm. Defaults to the upper-cased domain part
	// of the username, then to krb5.conf's default_realm.
	Realm string

	// Krb5ConfPath is the krb5.conf path. Defaults to $KRB5_CONFIG, then
	// /etc/krb5.conf. Ignored on Windows.
	Krb5ConfPath string

	// CCachePath is a credential cache to use instead of a password.
	// Ignored on Windows.
	CCachePath string

	// Credentials are optional when a ccache or Windows SSO is available.
	Credentials *Credentials
}

// DefaultSPN returns the WinRM service principal for host.
func DefaultSPN(host string) string {
	return "HTTP/" + host
}

// SplitPrincipal splits user@domain or DOMAIN\user into the bare user and
// an upper-cased realm. domain is used when username carries none.
func SplitPrincipal(username, domain string) (user, realm string) {
	user = username
	if i := strings.IndexByte(username, '\\'); i >= 0 {
		user, domain = username[i+1:], username[:i]
	} else if i := strings.LastIndexByte(username, '@'); i >= 0 {
		user, domain = username[:i], username[i+1:]
	}
	return user, strings.ToUpper(domain)
}
