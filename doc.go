// Package winrmconsole is an interactive console for remote Windows hosts
// over WinRM.
//
// The command lives in cmd/winrm-console; the packages below it can be used
// on their own.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│  cmd/winrm-console   flags, config file, wiring         │
//	├─────────────────────────────────────────────────────────┤
//	│  internal/console    read-eval-print loop, editor       │
//	│  internal/session    dispatch, decoding, rendering      │
//	│  internal/credential keyring-backed credential lookup   │
//	├─────────────────────────────────────────────────────────┤
//	│  client/             run_cmd / run_ps over one shell    │
//	├─────────────────────────────────────────────────────────┤
//	│  winrs/              WinRS shell and command lifecycle  │
//	│  wsman/              SOAP envelopes, auth, HTTP         │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	c, err := client.New("server01", client.Config{
//	    Username: `CORP\administrator`,
//	    Password: password,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	res, err := c.RunCmd(ctx, "ipconfig", "/all")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s", res.Stdout)
package winrmconsole
