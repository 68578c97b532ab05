package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/orwellctl/internal/client"
	"github.com/danmuck/orwellctl/internal/config"
	"github.com/danmuck/orwellctl/internal/logging"
	"github.com/spf13/cobra"
)

type runFlags struct {
	configPath string
	connection string
	name       string
	statusAddr string
	noJoystick bool
	verbose    bool
}

func runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join the game server and forward input until Goodbye",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			logger := logging.NewRuntime("orwellctl", f.verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := client.NewService(cfg, logger, client.Options{Version: version, Stdin: os.Stdin})
			if err != nil {
				return err
			}
			return svc.Run(ctx)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "path to a TOML config file")
	flags.StringVar(&f.connection, "connection", "", `server endpoints as "host,push_port,subscribe_port,reply_port"`)
	flags.StringVarP(&f.name, "name", "n", "", "controller name sent in Hello")
	flags.StringVar(&f.statusAddr, "status-addr", "", `status server address, "off" disables it`)
	flags.BoolVar(&f.noJoystick, "no-joystick", false, "use the console keyboard instead of joysticks")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

// resolveConfig loads the file (or defaults) and overlays explicit flags.
func resolveConfig(f runFlags, changed func(string) bool) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path := strings.TrimSpace(f.configPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if changed("connection") {
		cfg.Connection = strings.TrimSpace(f.connection)
	}
	if changed("name") {
		cfg.Name = strings.TrimSpace(f.name)
	}
	if changed("status-addr") {
		addr := strings.TrimSpace(f.statusAddr)
		if strings.EqualFold(addr, "off") {
			addr = ""
		}
		cfg.StatusAddr = addr
	}
	if f.noJoystick {
		cfg.Devices = []string{config.DeviceConsole}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
