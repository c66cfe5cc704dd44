package notify

import (
	"os/exec"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NotifySend shows notifications by spawning notify-send.
type NotifySend struct {
	// Command defaults to "notify-send".
	Command string
}

// Args returns the argument vector passed to notify-send.
func (n *NotifySend) Args(text, icon string, timeout time.Duration) []string {
	var args []string
	if icon != "" {
		args = append(args, "-i", icon)
	}
	args = append(args, "-t", strconv.FormatInt(timeout.Milliseconds(), 10), text)
	return args
}

func (n *NotifySend) Send(text, icon string, timeout time.Duration) error {
	command := n.Command
	if command == "" {
		command = "notify-send"
	}
	return start(command, n.Args(text, icon, timeout)...)
}

// ExecLauncher runs a command line split on whitespace.
type ExecLauncher struct{}

func (ExecLauncher) Run(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return start(fields[0], fields[1:]...)
}

// start spawns name and reaps it in the background. Only spawn failures are
// returned.
func start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return pkgerrors.Wrapf(err, "cannot execute command %s", name)
	}

	logrus.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
		"pid":     cmd.Process.Pid,
	}).Trace("command started")

	go func() {
		if err := cmd.Wait(); err != nil {
			logrus.WithError(err).WithField("command", name).Debug("command exited")
		}
	}()

	return nil
}
