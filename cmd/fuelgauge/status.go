package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/config"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
	"github.com/charlie0129/fuelgauge/pkg/types"
)

type statusData struct {
	telemetry *types.Telemetry
	config    *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	c := apiClient()

	tel, err := c.GetTelemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to get telemetry: %w", err)
	}

	conf, err := c.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		telemetry: tel,
		config:    conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current battery telemetry",
		Long:    `Get battery voltage, state of charge, charge status and gauge configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if asJSON {
				return printStatusJSON(cmd, data)
			}

			printStatus(cmd, data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, data *statusData) {
	tel := data.telemetry
	s := tel.Snapshot
	conf := config.NewFileFromConfig(data.config, "")

	cmd.Println(bold("Battery status:"))
	if s.IsPlaceholder() {
		cmd.Println("  No reading yet, the first poll cycle has not completed.")
	} else {
		cmd.Printf("  Voltage: %s\n", bold("%.3f V", float64(s.Decoded.VoltageMV)/1000))
		cmd.Printf("  Capacity: %s\n", bold("%d%%", s.Decoded.CapacityPct))
		cmd.Printf("  State: %s\n", statusText(s.Status))
		cmd.Printf("  AC online: %s\n", bool2Text(tel.ACOnline))
		cmd.Printf("  Last reading: %s (cycle %d)\n", s.Decoded.Timestamp.Local().Format(time.RFC3339), s.Cycle)
	}

	cmd.Println()

	cmd.Println(bold("Engine:"))
	cmd.Printf("  Device: %s\n", bold("%s", tel.Device))
	cmd.Printf("  State: %s\n", bold("%s", tel.EngineState))
	cmd.Printf("  Poll interval: %s\n", bold("%s", time.Duration(tel.PollIntervalMs)*time.Millisecond))
	cmd.Printf("  Cycles: %s succeeded, %s failed, %d continuous recently\n",
		color.GreenString("%d", tel.Stats.Succeeded),
		color.RedString("%d", tel.Stats.Failed),
		tel.RecentCycles,
	)
	if tel.Stats.LastError != "" && tel.Stats.LastErrorAt != nil {
		cmd.Printf("  Last error: %s (%s)\n", tel.Stats.LastError, tel.Stats.LastErrorAt.Local().Format(time.RFC3339))
	}

	cmd.Println()

	cmd.Println(bold("Gauge configuration:"))
	b := conf.BusOptions()
	switch b.Kind {
	case bus.KindModbus:
		cmd.Printf("  Bus: %s\n", bold("modbus %s (unit %d)", b.Endpoint, b.UnitID))
	default:
		dev := b.Device
		if dev == "" {
			dev = "first available"
		}
		cmd.Printf("  Bus: %s\n", bold("i2c %s @ %#02x", dev, b.Address))
	}
	regs := conf.Registers()
	cmd.Printf("  Registers: voltage %s, charge %s\n", bold("%#02x", regs.Voltage), bold("%#02x", regs.Charge))
	cmd.Printf("  Status signal: %s\n", bold("%s", conf.StatusSignal()))
	cmd.Printf("  Reset gauge on start: %s\n", bool2Text(conf.ResetOnStart()))
	cmd.Printf("  Publish to redis: %s\n", bool2Text(conf.RedisEnabled()))
	cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
}

func statusText(s gauge.ChargeStatus) string {
	switch s {
	case gauge.Charging:
		return color.New(color.Bold, color.FgGreen).Sprint(s.String())
	case gauge.Discharging:
		return color.New(color.Bold, color.FgRed).Sprint(s.String())
	default:
		return bold("%s", s.String())
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
