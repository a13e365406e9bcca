// Package device drives the capture phone. Opening a note's deep link
// in the app makes the app fetch it through the intercepting proxy,
// which is what feeds the relay.
package device

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Controller opens notes on the capture device. Commands are
// fire-and-forget: the caller never learns whether the app actually
// navigated, only whether the command was dispatched.
type Controller interface {
	OpenNote(ctx context.Context, noteID, anchorCommentID string) error
	GoHome(ctx context.Context) error
}

// Runner executes a shell command line on the device host. The adb
// controller uses a local exec runner; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands on the local machine.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SSHRunner runs commands on a remote device host over ssh. Target is
// a user@host string; the ssh binary handles auth from its own config.
type SSHRunner struct {
	Target string
}

func (r SSHRunner) Run(ctx context.Context, name string, args ...string) error {
	remote := append([]string{r.Target, name}, args...)
	out, err := exec.CommandContext(ctx, "ssh", remote...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ssh %s %s: %w (%s)", r.Target, name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ADBController opens deep links through adb. With a non-empty serial
// it targets that device; otherwise adb picks the only attached one.
type ADBController struct {
	runner Runner
	serial string
}

// NewADBController creates a controller that shells out to adb.
func NewADBController(runner Runner, serial string) *ADBController {
	return &ADBController{runner: runner, serial: serial}
}

// OpenNote navigates the app to the note. An anchor comment rides along
// in the deep link so the app scrolls to it, which also makes the
// comment list request carry it.
func (c *ADBController) OpenNote(ctx context.Context, noteID, anchorCommentID string) error {
	uri := "xhsdiscover://item/" + noteID
	if anchorCommentID != "" {
		uri += "?anchor_comment_id=" + anchorCommentID
	}
	return c.start(ctx, uri)
}

// GoHome returns the app to its feed so the next note open is a clean
// navigation.
func (c *ADBController) GoHome(ctx context.Context) error {
	return c.start(ctx, "xhsdiscover://home")
}

func (c *ADBController) start(ctx context.Context, uri string) error {
	args := make([]string, 0, 8)
	if c.serial != "" {
		args = append(args, "-s", c.serial)
	}
	args = append(args, "shell", "am", "start", "-d", uri)
	log.Printf("device: adb %s", strings.Join(args, " "))
	if err := c.runner.Run(ctx, "adb", args...); err != nil {
		return fmt.Errorf("open %s: %w", uri, err)
	}
	return nil
}

// NopController ignores every command. Used when the capture device is
// driven externally.
type NopController struct{}

func (NopController) OpenNote(ctx context.Context, noteID, anchorCommentID string) error { return nil }
func (NopController) GoHome(ctx context.Context) error                                   { return nil }
