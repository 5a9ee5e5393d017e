package agentcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/liquidmon/liquidmon/coolproto"
	"github.com/liquidmon/liquidmon/internal/coolersvc"
	"github.com/liquidmon/liquidmon/internal/hidsvc"
	"github.com/liquidmon/liquidmon/internal/simsvc"
	"github.com/liquidmon/liquidmon/pkg/agent"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	cmd := NewRootCmd(filepath.Join(dir, "liquidmon"))
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

type agentProvider func() *agent.Agent

func NewRootCmd(configDir string) *cobra.Command {
	cfg := agent.Config{
		DataDir:       filepath.Join(configDir, "data"),
		CoolersConfig: filepath.Join(configDir, "coolers.yml"),
	}
	rootCmd := &cobra.Command{
		Use:   "liquidmon",
		Short: "Liquid cooler monitoring daemon",
		Long:  `liquidmon binds USB liquid coolers and fan controllers, keeps their sensors fresh and applies persisted cooling settings.`,
	}
	var a *agent.Agent
	agentProvider := func() *agent.Agent {
		return a
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&cfg.CoolersConfig, "coolers-config", cfg.CoolersConfig, "coolers config file")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		a, err = agent.NewAgent(cfg)
		return err
	}
	rootCmd.AddCommand(NewRun(agentProvider))
	rootCmd.AddCommand(NewSimulate(agentProvider))
	rootCmd.AddCommand(NewListDevices(agentProvider))
	rootCmd.AddCommand(NewStatus(agentProvider))
	rootCmd.AddCommand(NewFirmwareVersion(agentProvider))
	rootCmd.AddCommand(NewSetPWM(agentProvider))
	rootCmd.AddCommand(NewSetCurve(agentProvider))
	rootCmd.AddCommand(NewSetMode(agentProvider))
	return rootCmd
}

func NewRun(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the liquidmon daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer agent().Close()
			return agent().Run(cmd.Context())
		},
	}
}

func NewSimulate(agent agentProvider) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the daemon with an emulated cooler",
		Long:  `Runs the daemon alongside a uhid-emulated Kraken gen 2, so the full discovery and binding path can be exercised without hardware.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := agent()
			defer a.Close()
			sim := simsvc.New(a.Logger().Named("sim"), simsvc.WithInterval(interval))
			group, groupCtx := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				return a.Run(groupCtx)
			})
			group.Go(func() error {
				return sim.Start(groupCtx)
			})
			return group.Wait()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "status report interval")
	return cmd
}

func NewListDevices(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List known HID devices",
		Long:  `Lists every HID device the daemon has seen, marking the supported cooler models.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer agent().Close()
			devices, err := agent().HID().ListDevices()
			if err != nil {
				return err
			}
			type deviceInfo struct {
				Address string `json:"address"`
				Name    string `json:"name"`
				Model   string `json:"model,omitempty"`
			}
			out := make([]deviceInfo, 0, len(devices))
			for _, dev := range devices {
				info := deviceInfo{
					Address: dev.Address.String(),
					Name:    dev.Name,
				}
				if spec, ok := coolproto.LookupSpec(dev.BackendDevice.VendorID, dev.BackendDevice.ProductID); ok {
					info.Model = spec.Name
				}
				out = append(out, info)
			}
			jsonB, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
}

// withEngine starts the agent in the background, waits for the device
// at addr to finish initializing, runs fn against it and shuts the
// agent down again. One-shot commands share this path.
func withEngine(cmd *cobra.Command, a *agent.Agent, addrStr string, fn func(ctx context.Context, eng *coolersvc.Engine) error) error {
	addr, err := hidsvc.ParseAddress(addrStr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.Run(groupCtx)
	})

	waitCtx, waitCancel := context.WithTimeout(groupCtx, 10*time.Second)
	eng, err := a.Coolers().WaitEngine(waitCtx, addr)
	waitCancel()
	if err == nil {
		err = fn(groupCtx, eng)
	}
	cancel()
	if groupErr := group.Wait(); err == nil {
		err = groupErr
	}
	return err
}

type channelStatus struct {
	Channel   int     `json:"channel"`
	Name      string  `json:"name"`
	RPM       *uint16 `json:"rpm,omitempty"`
	PWM       *int64  `json:"pwm,omitempty"`
	VoltageMV *int64  `json:"voltageMv,omitempty"`
	CurrentMA *int64  `json:"currentMa,omitempty"`
}

type deviceStatus struct {
	Model      string          `json:"model"`
	State      string          `json:"state"`
	TempMilliC *int64          `json:"tempMilliC,omitempty"`
	Firmware   string          `json:"firmware,omitempty"`
	Serial     string          `json:"serial,omitempty"`
	Channels   []channelStatus `json:"channels"`
}

func NewStatus(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "status <addr>",
		Short: "Print the sensors of one cooler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, agent(), args[0], func(ctx context.Context, eng *coolersvc.Engine) error {
				view := eng.View()
				spec := eng.Spec()
				st := deviceStatus{
					Model: spec.Name,
					State: eng.State().String(),
				}
				if v, err := view.Read(ctx, coolersvc.SensorTemp, 0); err == nil {
					st.TempMilliC = &v
				}
				if fw, err := view.Firmware(); err == nil {
					st.Firmware = fw.String()
				}
				st.Serial = view.Serial()
				for ch := range spec.Channels {
					cs := channelStatus{Channel: ch, Name: spec.Channels[ch].Name}
					if v, err := view.Read(ctx, coolersvc.SensorFan, ch); err == nil {
						rpm := uint16(v)
						cs.RPM = &rpm
					}
					if v, err := view.Read(ctx, coolersvc.SensorPWM, ch); err == nil {
						cs.PWM = &v
					}
					if v, err := view.Read(ctx, coolersvc.SensorVoltage, ch); err == nil {
						cs.VoltageMV = &v
					}
					if v, err := view.Read(ctx, coolersvc.SensorCurrent, ch); err == nil {
						cs.CurrentMA = &v
					}
					st.Channels = append(st.Channels, cs)
				}
				jsonB, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
				return nil
			})
		},
	}
}

func NewFirmwareVersion(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "firmware-version <addr>",
		Short: "Print the firmware version of one cooler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, agent(), args[0], func(ctx context.Context, eng *coolersvc.Engine) error {
				fw, err := eng.View().Firmware()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), fw.String())
				return nil
			})
		},
	}
}

func NewSetPWM(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "set-pwm <addr> <channel> <value>",
		Short: "Set a channel duty value (0-255)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid channel: %w", err)
			}
			value, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid value: %w", err)
			}
			a := agent()
			return withEngine(cmd, a, args[0], func(ctx context.Context, eng *coolersvc.Engine) error {
				addr, _ := hidsvc.ParseAddress(args[0])
				return a.Coolers().SetPWM(ctx, addr, channel, value)
			})
		},
	}
}

func NewSetCurve(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "set-curve <addr> <channel> <p1,p2,...>",
		Short: "Upload a fan curve (duty percent per temperature step)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid channel: %w", err)
			}
			parts := strings.Split(args[2], ",")
			curve := make(coolproto.Curve, 0, len(parts))
			for _, part := range parts {
				p, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
				if err != nil {
					return fmt.Errorf("invalid curve point %q: %w", part, err)
				}
				curve = append(curve, uint8(p))
			}
			a := agent()
			return withEngine(cmd, a, args[0], func(ctx context.Context, eng *coolersvc.Engine) error {
				addr, _ := hidsvc.ParseAddress(args[0])
				return a.Coolers().SetCurve(ctx, addr, channel, curve)
			})
		},
	}
}

func NewSetMode(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "set-mode <addr> <channel> <mode>",
		Short: "Select a device operating mode or profile",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid channel: %w", err)
			}
			mode, err := strconv.ParseUint(args[2], 10, 8)
			if err != nil {
				return fmt.Errorf("invalid mode: %w", err)
			}
			a := agent()
			return withEngine(cmd, a, args[0], func(ctx context.Context, eng *coolersvc.Engine) error {
				addr, _ := hidsvc.ParseAddress(args[0])
				return a.Coolers().SetMode(ctx, addr, channel, uint8(mode))
			})
		},
	}
}
