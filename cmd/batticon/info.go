package main

import (
	"github.com/distatus/battery"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		GroupID: gBasic,
		Short:   "Print detailed battery readings",
		Long: `Print detailed battery readings of every battery.

Capacities are in mWh, rates in mW. Charge rate is negative while discharging.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			batteries, err := battery.GetAll()
			if err != nil {
				if len(batteries) == 0 {
					return err
				}
				// Some readings of some batteries failed, show the rest.
				logrus.Warnf("some battery readings failed: %v", err)
			}

			if len(batteries) == 0 {
				cmd.Println("No batteries found.")
				return nil
			}

			for i, bat := range batteries {
				if bat == nil {
					continue
				}
				if i > 0 {
					cmd.Println()
				}
				printBatteryInfo(cmd, i, bat)
			}
			return nil
		},
	}
}

func printBatteryInfo(cmd *cobra.Command, i int, bat *battery.Battery) {
	cmd.Println(bold("Battery %d:", i))

	state := bat.State.String()
	rate := bat.ChargeRate
	switch bat.State {
	case battery.Charging:
		state = color.GreenString("charging")
	case battery.Discharging:
		state = color.RedString("discharging")
		rate = -rate
	case battery.Full:
		state = "full"
	}
	cmd.Printf("  State: %s\n", bold("%s", state))

	if bat.Full > 0 {
		cmd.Printf("  Charge: %s\n", bold("%.1f%%", bat.Current/bat.Full*100))
	}
	cmd.Printf("  Current capacity: %s\n", bold("%.0f mWh", bat.Current))
	cmd.Printf("  Full capacity: %s\n", bold("%.0f mWh", bat.Full))
	cmd.Printf("  Design capacity: %s\n", bold("%.0f mWh", bat.Design))
	if bat.Design > 0 {
		cmd.Printf("  Health: %s\n", bold("%.1f%%", bat.Full/bat.Design*100))
	}

	watts := rate / 1e3
	var rateStr string
	switch {
	case watts > 0:
		rateStr = color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", watts)
	case watts < 0:
		rateStr = color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", watts)
	default:
		rateStr = bold("%+.1f W", watts)
	}
	cmd.Printf("  Charge rate: %s\n", rateStr)
	cmd.Printf("  Voltage: %s\n", bold("%.2f V", bat.Voltage))
	cmd.Printf("  Design voltage: %s\n", bold("%.2f V", bat.DesignVoltage))
}
