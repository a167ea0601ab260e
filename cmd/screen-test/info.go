package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BeatGlow/screen"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the selected backend and display geometry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *screen.Session) error {
			var (
				out  = cmd.OutOrStdout()
				info = s.Info()
			)
			fmt.Fprintf(out, "backend:   %s\n", s.Backend())
			fmt.Fprintf(out, "size:      %dx%d\n", info.Width, info.Height)
			fmt.Fprintf(out, "format:    %s (layout %s)\n", info.Format, info.Layout)
			fmt.Fprintf(out, "dpi:       %d (reported %d)\n", s.DPI(), info.DPI)
			if info.PhysicalWidth > 0 && info.PhysicalHeight > 0 {
				fmt.Fprintf(out, "physical:  %s x %s\n", info.PhysicalWidth, info.PhysicalHeight)
			}
			buffering := "single"
			if s.DoubleBuffered() {
				buffering = "double"
			}
			fmt.Fprintf(out, "buffering: %s\n", buffering)
			fmt.Fprintf(out, "big:       %t\n", s.BigScreen())
			_, snap := s.Backend().(screen.Snapshotter)
			fmt.Fprintf(out, "snapshot:  %t\n", snap)
			return nil
		})
	},
}
