package main

import (
	"github.com/spf13/cobra"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/pixel"
)

var fillCmd = &cobra.Command{
	Use:   "fill <#rgb>",
	Short: "Fill the screen with one color",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := pixel.ParseHex(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *screen.Session) error {
			s.Canvas().FillRGB565(c)
			return s.Sync()
		})
	},
}
