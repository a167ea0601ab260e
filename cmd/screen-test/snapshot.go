package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/BeatGlow/screen"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <out.png>",
	Short: "Save what is on screen as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *screen.Session) error {
			if err := s.Snapshot(); err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err = png.Encode(f, s.Canvas()); err != nil {
				_ = f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", args[0], s.Bounds().Size())
			return nil
		})
	},
}
