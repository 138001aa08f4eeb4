// Command bmp2avi composes a sequence of 24-bit BMP frames into an
// uncompressed AVI file.
//
// Usage:
//
//	bmp2avi -o out.avi --fps 30 frame001.bmp frame002.bmp ...
package main

import (
	"fmt"
	"os"

	"github.com/go-raster/raster/avi"
	"github.com/go-raster/raster/bmp"
	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var outPath string
	var fps int

	cmd := &cobra.Command{
		Use:           "bmp2avi <frame.bmp>...",
		Short:         "Compose a sequence of BMP frames into an uncompressed AVI file",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fps <= 0 {
				return fmt.Errorf("bmp2avi: --fps must be positive, got %d", fps)
			}

			var w *avi.Writer
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("bmp2avi: reading %s: %w", path, err)
				}
				img, err := bmp.Decode(data)
				if err != nil {
					return fmt.Errorf("bmp2avi: decoding %s: %w", path, err)
				}

				if w == nil {
					w = avi.NewWriter(img.Width, img.Height, uint32(1000000/fps))
				} else if img.Width != w.Width || img.Height != w.Height {
					return fmt.Errorf("bmp2avi: %s is %dx%d, frame sequence is %dx%d", path, img.Width, img.Height, w.Width, w.Height)
				}

				if err := w.AddFrame(rgbToBGR(img.Pixels)); err != nil {
					return fmt.Errorf("bmp2avi: %s: %w", path, err)
				}
			}

			out, err := w.Emit()
			if err != nil {
				return fmt.Errorf("bmp2avi: assembling AVI: %w", err)
			}

			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("bmp2avi: writing %s: %w", outPath, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "out.avi", "output AVI file path")
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	return cmd
}

// rgbToBGR swaps bmp.Image's normalized RGB byte order back to the raw BGR
// order AVI '00dc' frames carry (this writer does not re-encode pixels).
func rgbToBGR(pixels []byte) []byte {
	out := make([]byte, len(pixels))
	for i := 0; i < len(pixels); i += 3 {
		out[i], out[i+1], out[i+2] = pixels[i+2], pixels[i+1], pixels[i]
	}
	return out
}
