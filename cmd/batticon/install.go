package main

import (
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/utils/autostart"
)

var gInstallation = "Installation:"

func init() {
	commandGroups = append(commandGroups, gInstallation)
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	var (
		lowLevel       int
		criticalLevel  int
		updateInterval int
		clickCommand   string
		hide           bool
	)

	cmd := &cobra.Command{
		Use:     "install [battery-id]",
		Short:   "Start batticon on login",
		GroupID: gInstallation,
		Long: `Install batticon as an autostart entry of the current user.

The current config, with the changes given by flags, is written to the config
file so that it can be edited later.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			f := conf.file

			flags := cmd.Flags()
			low, critical := f.LowLevel(), f.CriticalLevel()
			if flags.Changed("low-level") {
				low = lowLevel
			}
			if flags.Changed("critical-level") {
				critical = criticalLevel
			}
			if err := setLevels(f, low, critical); err != nil {
				return err
			}
			if flags.Changed("update-interval") {
				if updateInterval < 1 {
					return fmt.Errorf("update interval must be at least 1 second, got %d", updateInterval)
				}
				f.SetUpdateInterval(time.Duration(updateInterval) * time.Second)
			}
			if flags.Changed("click-command") {
				f.SetLeftClickCommand(clickCommand)
			}
			if flags.Changed("hide-notifications") {
				f.SetHideNotifications(hide)
			}

			if err := f.Save(); err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}
			logrus.WithFields(f.LogrusFields()).Infof("config saved to %s", configPath)

			dir, err := autostart.Dir()
			if err != nil {
				return err
			}
			entryArgs := []string{"--config", configPath}
			if sysfsPath != "" {
				entryArgs = append(entryArgs, "--sysfs-path", sysfsPath)
			}
			entryArgs = append(entryArgs, args...)
			path, err := autostart.Install(dir, entryArgs...)
			if err != nil {
				return fmt.Errorf("failed to install autostart entry: %v", err)
			}

			logrus.Infof("installation succeeded")

			cmd.Printf("%s points to the current binary, so please make sure you do not move it. Once it is moved or deleted, you will need to run `batticon install' again.\n", path)

			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&lowLevel, "low-level", 20, "percentage at which the low level warning is sent")
	f.IntVar(&criticalLevel, "critical-level", 5, "percentage at which the critical level warning is sent")
	f.IntVar(&updateInterval, "update-interval", 5, "seconds between two polls")
	f.StringVar(&clickCommand, "click-command", "", "command run when the tray menu entry is clicked")
	f.BoolVar(&hide, "hide-notifications", false, "do not send desktop notifications")

	return cmd
}

// setLevels validates both thresholds, then sets them in an order that
// keeps critical <= low at every step.
func setLevels(f *config.File, low, critical int) error {
	if low < 0 || low > 100 {
		return fmt.Errorf("low level must be between 0 and 100, got %d", low)
	}
	if critical < 0 || critical > low {
		return fmt.Errorf("critical level must be between 0 and low level %d, got %d", low, critical)
	}

	if critical <= f.LowLevel() {
		f.SetCriticalLevel(critical)
		f.SetLowLevel(low)
	} else {
		f.SetLowLevel(low)
		f.SetCriticalLevel(critical)
	}
	return nil
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Do not start batticon on login",
		GroupID: gInstallation,
		Long:    `Remove the autostart entry written by install.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := autostart.Dir()
			if err != nil {
				return err
			}
			if err := autostart.Uninstall(dir); err != nil {
				return fmt.Errorf("failed to uninstall: %v", err)
			}

			cmd.Println("successfully uninstalled")
			cmd.Printf("Your config is kept in %s, in case you want to use `batticon' again.\n", configPath)

			return nil
		},
	}
}
