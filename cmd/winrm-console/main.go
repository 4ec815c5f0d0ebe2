// Command winrm-console is an interactive console for remote Windows hosts
// over WinRM.
//
// The password can be provided via:
//   - --password flag (visible in the process list)
//   - WINRM_PASSWORD environment variable
//   - the OS keyring, filled in on first use
//   - a masked prompt
//
// Usage:
//
//	winrm-console [--user=<user>] [--password=<password>] [--transport=<transport>]
//	              [--encoding=<encoding>] [--run=<cmd>] <host>
//
// Examples:
//
//	# Interactive console, credentials from the keyring or a prompt
//	winrm-console srv01.corp.local
//
//	# One command, exit with its status code
//	winrm-console --user CORP\\admin --run "ipconfig /all" srv01
//
//	# Kerberos with an existing ticket cache
//	winrm-console --transport kerberos --user admin@CORP.LOCAL --tls dc01.corp.local
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}))
}
