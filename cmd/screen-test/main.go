// Command screen-test exercises the display backends on real hardware.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/auto"
	"github.com/BeatGlow/screen/internal/config"
	"github.com/BeatGlow/screen/internal/logger"
)

var (
	configFlag  string
	backendFlag string
	debugFlag   bool

	rootCmd = &cobra.Command{
		Use:   "screen-test",
		Short: "Draw test images on the display",
		Long: `screen-test claims the display through the first backend that works
(drm, overlay, framebuffer) and draws test images on it.`,
		SilenceUsage: true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "configuration file (default: search ., ~/.config/screen, /etc/screen)")
	flags.StringVarP(&backendFlag, "backend", "b", "", "only try this backend: drm, overlay or framebuffer")
	flags.BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(infoCmd, fillCmd, patternCmd, textCmd, imageCmd, snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openSession loads the configuration and claims the display.
func openSession() (*screen.Session, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if cfg.Debug || debugFlag {
		logger.SetDebug(true)
	}
	if backendFlag != "" {
		cfg.Order = []string{backendFlag}
	}

	state, err := host.Init()
	if err != nil {
		return nil, err
	}
	for _, d := range state.Loaded {
		logger.Logger.Debug("host driver loaded", "driver", d.String())
	}

	return auto.Open(&cfg.Config)
}

// withSession runs fn on a claimed display and releases it afterwards.
func withSession(fn func(*screen.Session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	err = fn(s)
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}
