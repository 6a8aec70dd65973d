// Package adb wraps the adb binary for talking to Android devices. All
// operations are blocking, synchronous calls; one Client may serve several
// devices by passing the target serial per call.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// Default timeout for a single adb invocation.
	defaultTimeout = 30 * time.Second
	// Maximum command output echoed to the debug log.
	maxLogLength = 200
)

var propPattern = regexp.MustCompile(`(?m)^\[([^\]]+)\]: \[([^\]]*)\]`)

// Result captures the outcome of a single adb invocation. A non-zero
// ExitCode is data, not an error; -1 marks timeouts and start failures.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the command exited zero.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Client executes adb commands.
type Client struct {
	path    string
	timeout time.Duration
}

// New returns a Client using the given adb binary, or the one found in
// PATH when empty.
func New(path string, timeout time.Duration) (*Client, error) {
	if path == "" {
		found, err := exec.LookPath("adb")
		if err != nil {
			return nil, fmt.Errorf("adb binary not found in PATH: %w", err)
		}
		path = found
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{path: path, timeout: timeout}, nil
}

// Path returns the adb binary in use.
func (c *Client) Path() string {
	return c.path
}

// Version reports the adb client's own version line.
func (c *Client) Version(ctx context.Context) (string, error) {
	res := c.run(ctx, "version")
	if !res.Ok() {
		return "", fmt.Errorf("adb version: %s", firstNonEmpty(res.Stderr, res.Stdout))
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	return strings.TrimSpace(line), nil
}

// run executes adb with the given arguments, capturing stdout and stderr
// separately. Timeouts and start failures surface as ExitCode -1.
func (c *Client) run(ctx context.Context, args ...string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Debugf("Executing: %s %s", c.path, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.path, args...)

	var stdoutBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Warnf("adb command timed out after %v: %s", c.timeout, strings.Join(args, " "))
			res.Stderr = "command timed out"
			res.ExitCode = -1
			return res
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Stderr = strings.TrimSpace(res.Stderr + "\ncommand error: " + err.Error())
		}
	}

	if res.Stdout != "" {
		log.Debugf("adb stdout (%d bytes): %s", len(res.Stdout), truncate(res.Stdout))
	}
	if res.Stderr != "" {
		log.Debugf("adb stderr (%d bytes): %s", len(res.Stderr), truncate(res.Stderr))
	}

	return res
}

// deviceArgs prefixes args with the target serial when set.
func deviceArgs(serial string, args ...string) []string {
	if serial == "" {
		return args
	}
	return append([]string{"-s", serial}, args...)
}

// Shell executes a shell command on the device. The command is passed as a
// single string and parsed by the device shell.
func (c *Client) Shell(ctx context.Context, serial, command string) Result {
	return c.run(ctx, deviceArgs(serial, "shell", command)...)
}

// ShellSu executes a shell command with superuser privileges.
func (c *Client) ShellSu(ctx context.Context, serial, command string) Result {
	return c.run(ctx, deviceArgs(serial, "shell", "su", "-c", command)...)
}

// Push copies a local file to the device.
func (c *Client) Push(ctx context.Context, serial, localPath, remotePath string) error {
	res := c.run(ctx, deviceArgs(serial, "push", localPath, remotePath)...)
	if !res.Ok() {
		return fmt.Errorf("push %s to %s: %s", localPath, remotePath, firstNonEmpty(res.Stderr, res.Stdout))
	}
	return nil
}

// Pull copies a file from the device to the local filesystem.
func (c *Client) Pull(ctx context.Context, serial, remotePath, localPath string) error {
	res := c.run(ctx, deviceArgs(serial, "pull", remotePath, localPath)...)
	if !res.Ok() {
		return fmt.Errorf("pull %s to %s: %s", remotePath, localPath, firstNonEmpty(res.Stderr, res.Stdout))
	}
	return nil
}

// GetProperty reads a single system property. Missing properties return
// the empty string.
func (c *Client) GetProperty(ctx context.Context, serial, key string) string {
	res := c.Shell(ctx, serial, "getprop "+key)
	if !res.Ok() {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// GetProperties reads the full system property table.
func (c *Client) GetProperties(ctx context.Context, serial string) (map[string]string, error) {
	res := c.Shell(ctx, serial, "getprop")
	if !res.Ok() {
		return nil, fmt.Errorf("getprop failed: %s", firstNonEmpty(res.Stderr, res.Stdout))
	}
	return parseProperties(res.Stdout), nil
}

// FileExists reports whether a path exists on the device.
func (c *Client) FileExists(ctx context.Context, serial, path string) bool {
	res := c.Shell(ctx, serial, "ls "+path)
	return res.Ok() && !strings.Contains(res.Stderr, "No such file")
}

// Chmod changes file permissions on the device.
func (c *Client) Chmod(ctx context.Context, serial, path, mode string) error {
	res := c.Shell(ctx, serial, fmt.Sprintf("chmod %s %s", mode, path))
	if !res.Ok() {
		return fmt.Errorf("chmod %s %s: %s", mode, path, firstNonEmpty(res.Stderr, res.Stdout))
	}
	return nil
}

// CheckRoot reports whether su grants root on the device.
func (c *Client) CheckRoot(ctx context.Context, serial string) bool {
	res := c.ShellSu(ctx, serial, "id")
	return strings.Contains(res.Stdout, "uid=0(root)")
}

func parseProperties(output string) map[string]string {
	props := make(map[string]string)
	for _, m := range propPattern.FindAllStringSubmatch(output, -1) {
		props[m[1]] = m[2]
	}
	return props
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLogLength {
		return s[:maxLogLength] + "..."
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "unknown error"
}
