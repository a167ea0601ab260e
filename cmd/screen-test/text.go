package main

import (
	"github.com/spf13/cobra"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/draw"
	"github.com/BeatGlow/screen/pixel"
)

var (
	textSize       float64
	textColor      string
	textBackground string

	textCmd = &cobra.Command{
		Use:   "text <message>",
		Short: "Render a text banner",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fg, err := pixel.ParseHex(textColor)
			if err != nil {
				return err
			}
			bg, err := pixel.ParseHex(textBackground)
			if err != nil {
				return err
			}
			font, err := draw.DefaultFont()
			if err != nil {
				return err
			}
			return withSession(func(s *screen.Session) error {
				var (
					c    = s.Canvas()
					face = draw.NewFace(font, textSize, s.DPI())
				)
				c.FillRGB565(bg)
				if err := face.CenteredText(c, s.Bounds(), args[0], pixel.RGB565{V: fg}); err != nil {
					return err
				}
				return s.Sync()
			})
		},
	}
)

func init() {
	textCmd.Flags().Float64Var(&textSize, "size", 12, "font size in points")
	textCmd.Flags().StringVar(&textColor, "color", "#fff", "text color")
	textCmd.Flags().StringVar(&textBackground, "background", "#000", "background color")
}
