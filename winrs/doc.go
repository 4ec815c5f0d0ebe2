// Package winrs runs cmd.exe and PowerShell commands on a remote Windows
// host through the WS-Management shell plugin.
//
//	shell, err := winrs.NewShell(ctx, wsmanClient, winrs.WithCodepage(65001))
//	if err != nil {
//	    return err
//	}
//	defer shell.Close(ctx)
//
//	proc, err := shell.Run(ctx, "dir", "/b")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(string(proc.Stdout()))
package winrs
