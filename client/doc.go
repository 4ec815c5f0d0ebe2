// Package client runs cmd.exe commands and PowerShell scripts on a remote
// Windows host over WinRM.
//
//	c, err := client.New("server.corp.local", client.Config{
//	    Transport: client.TransportNTLM,
//	    Username:  `CORP\alice`,
//	    Password:  password,
//	})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	res, err := c.RunCmd(ctx, "ipconfig", "/all")
//
// Errors reaching the host wrap ErrConnection and rejected credentials wrap
// ErrInvalidCredentials, so callers can decide to carry on.
package client
