// Package pixel implements the color and blit engine shared by the screen
// backends.
//
// The software canvas always holds packed 16-bit 5-6-5 RGB pixels. This
// package converts them to and from the native formats of the display
// hardware: plain 16-bit copies, 32-bit pixels with an arbitrary channel
// [Layout], ordered dithering when reducing 24-bit color, and fixed-point alpha
// compositing.
//
// None of the routines report errors; rectangles and strides are trusted to be
// in bounds. Callers validate geometry first.
//
// The [Canvas] type implements [image/draw.Image] so standard Go image code
// can render into it.
package pixel
