package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/batticon/pkg/client"
	"github.com/charlie0129/batticon/pkg/sysfs"
	"github.com/charlie0129/batticon/pkg/version"
)

var (
	logLevel   = "info"
	configPath = defaultConfigPath()
	sysfsPath  = ""
	noTray     = false
	listOnly   = false
	showVer    = false
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "batticon", "config.yaml")
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: batticon is not running")
		fmt.Fprintln(os.Stderr, "Is statusSocket set in the config of the running batticon?")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - The status socket belongs to another user")
	}
}

func main() {
	// batticon does not need much.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}
	// The tray must run on the main thread.
	runtime.LockOSThread()

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batticon [battery-id]",
		Short: "batticon is a battery status icon and notifier for Linux",
		Long: `batticon is a battery status icon and notifier for Linux.

It reads the kernel power supply registry, shows the battery state in the
system tray and sends desktop notifications when the state changes or the
level gets low.

If battery-id is given, the first battery whose path ends with it is used.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVer {
				printVersion(cmd)
				return nil
			}

			batteryID := ""
			if len(args) > 0 {
				batteryID = args[0]
			}

			if listOnly {
				return listPowerSupplies(cmd, listRoot())
			}

			conf, err := loadConfig()
			if err != nil {
				return err
			}

			return run(conf, batteryID)
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (yaml, json or toml)")
	globalFlags.StringVar(&sysfsPath, "sysfs-path", "", "power supply registry, overrides sysfsPath in the config (default "+sysfs.DefaultRoot+")")

	f := cmd.Flags()
	f.BoolVarP(&showVer, "version", "v", false, "print version and exit")
	f.BoolVarP(&listOnly, "list-power-supplies", "l", false, "list batteries and AC adapters and exit")
	f.BoolVar(&noTray, "no-tray", false, "do not show a tray icon, log state changes instead")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewInfoCommand(),
		NewStatusCommand(),
		NewVersionCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}

func printVersion(cmd *cobra.Command) {
	cmd.Printf("%s %s\n", version.Version, version.GitCommit)
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version",
		GroupID: gAdvanced,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd)
		},
	}
}
