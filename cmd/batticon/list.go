package main

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/powersupply"
	"github.com/charlie0129/batticon/pkg/sysfs"
)

// listRoot returns the registry to list. A broken config file does not
// stop the listing; the default registry is used instead.
func listRoot() string {
	if sysfsPath != "" {
		return sysfsPath
	}

	f, err := config.NewFile(configPath)
	if err != nil {
		logrus.WithError(err).Warnf("ignoring config file, listing %s", sysfs.DefaultRoot)
		return sysfs.DefaultRoot
	}
	return f.SysfsPath()
}

func listPowerSupplies(cmd *cobra.Command, root string) error {
	entries, err := powersupply.List(root)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		cmd.Printf("No batteries or AC adapters found in %s\n", root)
		return nil
	}

	for _, e := range entries {
		cmd.Printf("%s\t%s\t%s\n", bold("%s", e.ID), roleText(e.Role), e.Path)
	}
	return nil
}

func roleText(r powersupply.Role) string {
	switch r {
	case powersupply.RoleBattery:
		return color.GreenString("%-7s", r)
	case powersupply.RoleAC:
		return color.CyanString("%-7s", r)
	default:
		return string(r)
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
