package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batticon/pkg/client"
	"github.com/charlie0129/batticon/pkg/events"
	"github.com/charlie0129/batticon/pkg/powerinfo"
)

func NewStatusCommand() *cobra.Command {
	var (
		socketPath string
		asJSON     bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the status of a running batticon",
		Long: `Get the battery state shown by a running batticon.

The running instance must have statusSocket set in its config.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if socketPath == "" {
				conf, err := loadConfig()
				if err != nil {
					return err
				}
				socketPath = conf.StatusSocket()
			}
			if socketPath == "" {
				return pkgerrors.New("no status socket: set statusSocket in the config or use --socket")
			}

			apiClient := client.NewClient(socketPath)

			snap, err := apiClient.GetStatus()
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(b))
			} else {
				printSnapshot(cmd, snap)
			}

			if !watch {
				return nil
			}
			return watchEvents(cmd, apiClient)
		},
	}

	f := cmd.Flags()
	f.StringVar(&socketPath, "socket", "", "status socket of the running batticon (default: statusSocket from the config)")
	f.BoolVar(&asJSON, "json", false, "print the status as JSON")
	f.BoolVarP(&watch, "watch", "w", false, "keep printing status changes and alerts")

	return cmd
}

func printSnapshot(cmd *cobra.Command, snap *powerinfo.Snapshot) {
	if snap.ACOnly {
		cmd.Printf("%s\n", bold("%s", powerinfo.ACOnlyMessage))
		return
	}

	cmd.Println(bold("Battery %s:", snap.BatteryID))
	cmd.Printf("  Status: %s\n", statusText(snap.Status))
	cmd.Printf("  Charge: %s\n", bold("%d%%", snap.Percent))
	cmd.Printf("  Message: %s\n", snap.Message)
	cmd.Printf("  Low level warning: %s\n", bool2Text(snap.Display == powerinfo.LowLevel.String() || snap.Display == powerinfo.CriticalLevel.String()))
	cmd.Printf("  Critical level warning: %s\n", bool2Text(snap.Display == powerinfo.CriticalLevel.String()))
	cmd.Printf("  Updated: %s ago\n", time.Since(snap.UpdatedAt).Round(time.Second))
}

func statusText(s string) string {
	switch s {
	case powerinfo.Charging.String(), powerinfo.Charged.String():
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	case powerinfo.Discharging.String():
		return color.New(color.Bold, color.FgRed).Sprint(s)
	case powerinfo.Missing.String(), powerinfo.Unknown.String():
		return color.New(color.Bold, color.FgYellow).Sprint(s)
	default:
		return bold("%s", s)
	}
}

func watchEvents(cmd *cobra.Command, apiClient *client.Client) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch, err := apiClient.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	for ev := range ch {
		ts := time.Now().Format(time.Kitchen)
		switch ev.Name {
		case events.StatusChanged:
			e, err := events.DecodeAs[events.StatusChangedEvent](ev)
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to decode %s event", ev.Name)
			}
			cmd.Printf("%s %s -> %s (%d%%)\n", ts, statusText(e.From), statusText(e.To), e.Percent)
		case events.AlertSent:
			e, err := events.DecodeAs[events.AlertEvent](ev)
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to decode %s event", ev.Name)
			}
			cmd.Printf("%s %s\n", ts, bold("%s", e.Message))
		}
	}

	if ctx.Err() == nil {
		return pkgerrors.New("event stream closed by batticon")
	}
	return nil
}
