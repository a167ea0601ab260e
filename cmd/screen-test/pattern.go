package main

import (
	"context"
	"fmt"
	"image"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/draw"
	"github.com/BeatGlow/screen/pixel"
)

var (
	patternDuration time.Duration
	patternInterval time.Duration

	patternCmd = &cobra.Command{
		Use:   "pattern",
		Short: "Animate a test pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if patternDuration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, patternDuration)
				defer cancel()
			}
			return withSession(func(s *screen.Session) error {
				fmt.Fprintln(cmd.OutOrStdout(), "hit control-c to stop...")
				return runPattern(ctx, s, patternInterval)
			})
		},
	}
)

func init() {
	patternCmd.Flags().DurationVar(&patternDuration, "duration", 0, "stop after this long (default: run until interrupted)")
	patternCmd.Flags().DurationVar(&patternInterval, "interval", 50*time.Millisecond, "time between frames")
}

func runPattern(ctx context.Context, s *screen.Session, interval time.Duration) error {
	var (
		c      = s.Canvas()
		r      = s.Bounds()
		inner  = r.Inset(1)
		margin = s.DP(8)
		radius = s.DP(6)
		box    = image.Rect(0, 0, r.Dx()/3, r.Dy()/4)
		ticker = time.NewTicker(interval)
		offset int
	)
	defer ticker.Stop()

	c.Clear()
	draw.Rectangle(c, r, 0xFFFF)

	for {
		// Gradient inside the border.
		for y := inner.Min.Y; y < inner.Max.Y; y++ {
			row := c.Row(y, inner.Min.X, inner.Max.X)
			for i := range row {
				x := inner.Min.X + i
				row[i] = pixel.DitherRGB(x, y, uint8(x+y+offset), uint8(x-y+offset), uint8(x+y-offset))
			}
		}

		// A rounded box bouncing along the top and a translucent band below.
		span := max(1, inner.Dx()-box.Dx()-2*margin)
		pos := offset % (2 * span)
		if pos >= span {
			pos = 2*span - pos
		}
		at := box.Add(image.Pt(inner.Min.X+margin+pos, inner.Min.Y+margin))
		draw.RoundedBox(c, at, radius, 0x0000)
		draw.RoundedRectangle(c, at, radius, 0xFFFF)
		band := image.Rect(inner.Min.X, inner.Max.Y-r.Dy()/4, inner.Max.X, inner.Max.Y-margin)
		draw.AlphaBoxDither(c, band, 0x0000, 0x80)
		draw.Gradient(c, band.Inset(margin), 0xF800, 0x001F)

		if err := s.Sync(); err != nil {
			return err
		}

		offset++
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
