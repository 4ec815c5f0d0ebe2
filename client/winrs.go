package client

import (
	"context"
	"errors"

	"github.com/smnsjas/go-winrm-console/winrs"
)

// CmdResult holds the raw result of one remote command.
type CmdResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// RunCmd runs command with args in a fresh cmd.exe shell.
func (c *Client) RunCmd(ctx context.Context, command string, args ...string) (*CmdResult, error) {
	c.audit.LogCommand(SubtypeCommandExecute, OutcomeAttempt, map[string]any{
		"mode":       "cmd",
		"executable": command,
		"arg_count":  len(args),
	})

	return c.withShell(ctx, "cmd", func(shell *winrs.Shell) (*winrs.Process, error) {
		return shell.Run(ctx, command, args...)
	})
}

// RunPS runs a PowerShell script in a fresh shell.
func (c *Client) RunPS(ctx context.Context, script string) (*CmdResult, error) {
	c.audit.LogCommand(SubtypeCommandExecute, OutcomeAttempt, map[string]any{
		"mode":          "powershell",
		"script_length": len(script),
	})

	return c.withShell(ctx, "powershell", func(shell *winrs.Shell) (*winrs.Process, error) {
		return shell.RunPowerShell(ctx, script)
	})
}

func (c *Client) withShell(ctx context.Context, mode string, run func(*winrs.Shell) (*winrs.Process, error)) (*CmdResult, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, errors.New("client is closed")
	}

	shell, err := winrs.NewShell(ctx, c.wsman, c.shellOptions()...)
	if err != nil {
		return nil, c.fail(mode, "create_shell", err)
	}
	defer func() {
		// A fresh context so the shell is released even after cancellation.
		if closeErr := shell.Close(context.WithoutCancel(ctx)); closeErr != nil {
			c.logger.Warn("failed to close shell", "shell_id", shell.ID(), "error", closeErr)
		}
	}()

	proc, err := run(shell)
	if err != nil {
		return nil, c.fail(mode, "run_command", err)
	}

	outcome := OutcomeSuccess
	if proc.ExitCode() != 0 {
		outcome = OutcomeFailure
	}
	c.audit.LogCommand(SubtypeCommandComplete, outcome, map[string]any{
		"mode":      mode,
		"exit_code": proc.ExitCode(),
	})

	return &CmdResult{
		ExitCode: proc.ExitCode(),
		Stdout:   proc.Stdout(),
		Stderr:   proc.Stderr(),
	}, nil
}

func (c *Client) shellOptions() []winrs.Option {
	opts := []winrs.Option{winrs.WithCodepage(c.config.Codepage)}
	if c.config.WorkingDirectory != "" {
		opts = append(opts, winrs.WithWorkingDirectory(c.config.WorkingDirectory))
	}
	if len(c.config.Environment) > 0 {
		opts = append(opts, winrs.WithEnvironment(c.config.Environment))
	}
	if c.config.NoProfile {
		opts = append(opts, winrs.WithNoProfile())
	}
	if c.config.IdleTimeout > 0 {
		opts = append(opts, winrs.WithIdleTimeout(c.config.IdleTimeout))
	}
	return opts
}

func (c *Client) fail(mode, stage string, err error) error {
	err = classify(err)
	if errors.Is(err, ErrInvalidCredentials) {
		c.audit.LogAuthentication(SubtypeAuthFailure, OutcomeDenied, map[string]any{"stage": stage})
	}
	c.audit.LogCommand(SubtypeCommandFailed, OutcomeFailure, map[string]any{
		"mode":  mode,
		"stage": stage,
		"error": err.Error(),
	})
	return err
}
