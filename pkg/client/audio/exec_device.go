package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// stopTimeout bounds how long a recorder command gets to flush after the interrupt
const stopTimeout = 3 * time.Second

// startGrace is how long Open watches for a recorder that exits straight away (busy or missing card)
const startGrace = 150 * time.Millisecond

// ExecDevice records by running an external command that writes audio to stdout
// until it is interrupted (e.g. "arecord -q -f cd -t wav -")
type ExecDevice struct {
	command []string
}

// NewExecDevice parses a whitespace-separated command line
func NewExecDevice(commandLine string) *ExecDevice {
	return &ExecDevice{command: strings.Fields(commandLine)}
}

// Available reports whether the recorder command is on PATH
func (d *ExecDevice) Available() bool {
	if len(d.command) == 0 {
		return false
	}
	_, err := exec.LookPath(d.command[0])
	return err == nil
}

// Open starts the recorder command
func (d *ExecDevice) Open(ctx context.Context) (Capture, error) {
	if len(d.command) == 0 {
		return nil, ErrDeviceUnavailable
	}
	path, err := exec.LookPath(d.command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrDeviceUnavailable, d.command[0])
	}

	c := &execCapture{done: make(chan struct{})}
	c.cmd = exec.CommandContext(ctx, path, d.command[1:]...)
	c.cmd.Stdout = &c.out
	c.cmd.Stderr = &c.stderr
	if err := c.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	go func() {
		c.waitErr = c.cmd.Wait()
		close(c.done)
	}()

	select {
	case <-c.done:
		if c.waitErr != nil {
			return nil, c.exitError()
		}
		return nil, fmt.Errorf("%w: %s exited before recording", ErrDeviceUnavailable, d.command[0])
	case <-time.After(startGrace):
	}
	return c, nil
}

type execCapture struct {
	cmd    *exec.Cmd
	out    bytes.Buffer
	stderr bytes.Buffer

	done     chan struct{}
	waitErr  error
	stopOnce sync.Once
}

// Stop interrupts the command and waits for it to flush its output
func (c *execCapture) Stop() ([]byte, error) {
	var stopErr error
	c.stopOnce.Do(func() {
		select {
		case <-c.done:
			// Exited on its own before we asked
			if c.waitErr != nil {
				stopErr = c.exitError()
			}
			return
		default:
		}

		if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
			c.cmd.Process.Kill()
		}
		select {
		case <-c.done:
		case <-time.After(stopTimeout):
			c.cmd.Process.Kill()
			<-c.done
		}
		// Recorders commonly exit non-zero on SIGINT; only fail when nothing was written
		if c.out.Len() == 0 && c.waitErr != nil {
			stopErr = c.exitError()
		}
	})
	if stopErr != nil {
		return nil, stopErr
	}
	return c.out.Bytes(), nil
}

// Close kills the command and discards its output
func (c *execCapture) Close() error {
	c.stopOnce.Do(func() {
		select {
		case <-c.done:
		default:
			c.cmd.Process.Kill()
			<-c.done
		}
	})
	return nil
}

func (c *execCapture) exitError() error {
	msg := strings.TrimSpace(c.stderr.String())
	var exitErr *exec.ExitError
	if errors.As(c.waitErr, &exitErr) && msg != "" {
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, c.waitErr)
}
