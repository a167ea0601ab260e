package main

import (
	"fmt"
	"image"
	_ "image/jpeg" // decoder
	_ "image/png"  // decoder
	"os"

	"github.com/spf13/cobra"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/draw"
)

var (
	imageStretch bool

	imageCmd = &cobra.Command{
		Use:   "image <file>",
		Short: "Show a PNG or JPEG image scaled to the screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			src, err := loadImage(args[0])
			if err != nil {
				return err
			}
			return withSession(func(s *screen.Session) error {
				r := s.Bounds()
				if !imageStretch {
					r = draw.Fit(r, src.Bounds().Size())
				}
				if r.Size() == src.Bounds().Size() {
					return s.Drawer().Draw(r, src, src.Bounds().Min)
				}
				s.Canvas().Clear()
				draw.Scale(s.Canvas(), r, src)
				return s.Sync()
			})
		},
	}
)

func init() {
	imageCmd.Flags().BoolVar(&imageStretch, "stretch", false, "fill the screen, ignoring the aspect ratio")
}

func loadImage(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}
