package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/snowsensor/snownode/internal/boot"
	"github.com/snowsensor/snownode/internal/config"
	"github.com/snowsensor/snownode/internal/cycle"
	"github.com/snowsensor/snownode/internal/logging"
	"github.com/snowsensor/snownode/internal/ui"
)

var (
	forceInit bool
	showRaw   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the operating cycle",
	Long: `Run the operating cycle according to the configuration.

Unless cycle.skip_boot_check is set, the node first joins Wi-Fi and checks
for a firmware update. It then runs cycles until one of:

  - the node is not deployed (exactly one cycle is run)
  - a fault occurs and cycle.fault_policy is "halt"
  - an update was applied (the device resets)
  - deep sleep is enabled (the wake alarm is armed and the board powers off)
  - SIGINT or SIGTERM is received between cycles

The exit status is 1 if the last cycle faulted.`,
	Example: `  # Run with the default configuration (/etc/snownode/config.yaml)
  snownode run

  # Run with a bench configuration and verbose logs
  snownode run --config ./bench.yaml --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNode(cmd.Context(), false)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run exactly one cycle and exit",
	Long: `Run exactly one cycle, regardless of cycle.deployed, without the boot
stage and without sleeping afterwards. The exit status is 0 when the
reading was reported and 1 otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNode(cmd.Context(), true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration, hardware and network reachability",
	Long: `Check that the node can run: the configuration is valid, the device
identity can be derived, the sensor answers, wpa_supplicant is reachable,
and the time source and collector can be found.

No reading is reported and the indicator is not driven.`,
	RunE: runCheck,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a template configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !forceInit {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}
		if err := config.Template().Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		fmt.Printf("Set %s to supply the Wi-Fi passphrase.\n", config.PasswordEnvVar)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and environment overrides have
been applied. The Wi-Fi passphrase is redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showRaw {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			fmt.Print(string(data))
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if cfg.WiFi.Password != "" {
			cfg.WiFi.Password = "********"
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
	configShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the file as-is, without defaults or validation")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runNode(parent context.Context, once bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := buildNode(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize node: %w", err)
	}
	defer n.Close()

	logger.Info("node starting",
		zap.Stringer("device_id", n.id),
		zap.Bool("deployed", cfg.Cycle.Deployed && !once),
		zap.Bool("ota", n.manifest != nil),
	)

	bootRan := false
	if !once && !cfg.Cycle.SkipBootCheck {
		stage := boot.New(n.joiner, n.updater, n.manifest, cfg.WiFi.SSID, cfg.WiFi.Password, logger)
		ran, restarted, err := n.runBoot(ctx, stage)
		if err != nil || restarted {
			return err
		}
		bootRan = ran
	}

	c, err := cycle.New(cycleConfig(cfg, n, once, bootRan), n.deps(), logger)
	if err != nil {
		return err
	}
	c.Sleep = n.power.LightSleep

	action := c.Run(ctx)
	return n.execute(action)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.NewHeader("Node check", "snownode check", ui.Param{Key: "Config", Value: configPath}).Render())

	cfg, err := config.Load(configPath)
	if err != nil {
		res := ui.NewResult("Node check", []ui.Check{{Name: "Configuration", Status: ui.CheckFailed, Detail: err.Error()}})
		fmt.Println(res.Render())
		return errors.New("configuration is invalid")
	}

	logger, err := logging.New("off")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tasks := append([]ui.Task{{Name: "Configuration", Run: func(context.Context) ui.Check {
		return ui.Check{Status: ui.CheckPassed, Detail: configPath}
	}}}, checkTasks(cfg, logger)...)

	fmt.Println()
	checks, runErr := ui.RunChecks(ctx, os.Stdout, tasks)
	if checks == nil {
		return runErr
	}

	res := ui.NewResult("Node check", checks)
	fmt.Println()
	fmt.Println(res.Render())

	if runErr != nil {
		return runErr
	}

	if res.Failed() {
		return errors.New("one or more checks failed")
	}
	return nil
}
