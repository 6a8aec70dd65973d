package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fridactl/internal/adb"
	"fridactl/internal/automator"
	"fridactl/internal/config"
	"fridactl/internal/download"
	"fridactl/internal/frida"
	"fridactl/internal/inventory"
)

var (
	flagDevice  string
	flagConfig  string
	flagADBPath string
	flagVerbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fridactl",
	Short: "Manage frida-server versions on Android devices",
	Long: `fridactl inspects the frida components on your host and your Android
device, checks that their versions agree, and installs, starts and stops
the matching frida-server build over adb.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagADBPath != "" {
			c.ADBPath = flagADBPath
		}
		if flagDevice != "" {
			c.DefaultDevice = flagDevice
		}
		if flagVerbose {
			c.Verbose = true
		}
		cfg = c

		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
		if cfg.Verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDevice, "device", "s", "", "target device serial")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.fridactl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagADBPath, "adb-path", "", "path to the adb binary")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// app bundles the wired clients every command needs.
type app struct {
	cfg *config.Config
	adb *adb.Client
	dl  *download.Client
	mgr *frida.Manager
	inv *inventory.Inventory
}

func newApp() (*app, error) {
	client, err := adb.New(cfg.ADBPath, cfg.Timeout())
	if err != nil {
		return nil, err
	}
	dl := download.New(cfg.DownloadDir, cfg.KeepArchives)
	mgr := frida.NewManager(client, dl, cfg.ServerDir, cfg.Port)
	return &app{
		cfg: cfg,
		adb: client,
		dl:  dl,
		mgr: mgr,
		inv: inventory.New(client, mgr),
	}, nil
}

// device resolves the target device: the configured serial if set,
// otherwise the single connected one.
func (a *app) device(ctx context.Context) (adb.Device, error) {
	return a.adb.SelectDevice(ctx, a.cfg.DefaultDevice)
}

func (a *app) automator(serial string) *automator.Automator {
	return automator.New(serial, a.inv, a.mgr, a.adb, a.dl.LatestVersion)
}
