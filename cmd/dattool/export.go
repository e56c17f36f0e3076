package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/sied-dat/pkg/dat"
)

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format, noAlign := openFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: dattool export <file.dat> <seq> [outdir]")
		os.Exit(1)
	}

	var index int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &index); err != nil {
		fatal(fmt.Errorf("bad sequence index %q", fs.Arg(1)))
	}
	outDir := "."
	if fs.NArg() >= 3 {
		outDir = fs.Arg(2)
	}

	d, err := openContainer(fs.Arg(0), *format, *noAlign)
	if err != nil {
		fatal(err)
	}
	defer d.Close()

	seq, err := d.SettlerSequence(index)
	if err != nil {
		fatal(err)
	}
	if seq.Length() == 0 {
		fatal(fmt.Errorf("sequence %d is empty", index))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fatal(err)
	}

	for i := 0; i < seq.Length(); i++ {
		frame := seq.FrameSafe(i)
		if frame.IsNull() {
			continue
		}
		name := filepath.Join(outDir, fmt.Sprintf("seq%03d_frame%03d.bmp", index, i))
		if err := writeBMP(name, composeFrame(frame)); err != nil {
			fatal(fmt.Errorf("writing %s: %w", name, err))
		}
		fmt.Println(name)
	}
}

// composeFrame flattens a settler frame and its overlays into one RGBA
// image: shadow below, body above, torso on top.
func composeFrame(frame *dat.Image) *image.RGBA {
	minX, minY := frame.OffsetX, frame.OffsetY
	maxX, maxY := frame.OffsetX+frame.Width, frame.OffsetY+frame.Height
	for _, overlay := range []*dat.Image{frame.Shadow, frame.Torso} {
		if overlay == nil {
			continue
		}
		if overlay.OffsetX < minX {
			minX = overlay.OffsetX
		}
		if overlay.OffsetY < minY {
			minY = overlay.OffsetY
		}
		if overlay.OffsetX+overlay.Width > maxX {
			maxX = overlay.OffsetX + overlay.Width
		}
		if overlay.OffsetY+overlay.Height > maxY {
			maxY = overlay.OffsetY + overlay.Height
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, maxX-minX, maxY-minY))
	blit(canvas, frame.Shadow, minX, minY)
	blit(canvas, frame, minX, minY)
	blit(canvas, frame.Torso, minX, minY)
	return canvas
}

// blit alpha-blends src onto the canvas at its draw offset.
func blit(canvas *image.RGBA, src *dat.Image, originX, originY int) {
	if src.IsNull() {
		return
	}
	width := canvas.Rect.Dx()
	height := canvas.Rect.Dy()

	for py := 0; py < src.Height; py++ {
		for px := 0; px < src.Width; px++ {
			dx := src.OffsetX - originX + px
			dy := src.OffsetY - originY + py
			if dx < 0 || dx >= width || dy < 0 || dy >= height {
				continue
			}

			srcIdx := (py*src.Width + px) * 4
			sr, sg, sb, sa := src.Pixels[srcIdx], src.Pixels[srcIdx+1], src.Pixels[srcIdx+2], src.Pixels[srcIdx+3]
			if sa == 0 {
				continue
			}
			dstIdx := canvas.PixOffset(dx, dy)
			if sa == 255 {
				canvas.Pix[dstIdx] = sr
				canvas.Pix[dstIdx+1] = sg
				canvas.Pix[dstIdx+2] = sb
				canvas.Pix[dstIdx+3] = sa
				continue
			}

			da := canvas.Pix[dstIdx+3]
			outA := int(sa) + int(da)*(255-int(sa))/255
			if outA == 0 {
				continue
			}
			canvas.Pix[dstIdx] = byte((int(sr)*int(sa) + int(canvas.Pix[dstIdx])*int(da)*(255-int(sa))/255) / outA)
			canvas.Pix[dstIdx+1] = byte((int(sg)*int(sa) + int(canvas.Pix[dstIdx+1])*int(da)*(255-int(sa))/255) / outA)
			canvas.Pix[dstIdx+2] = byte((int(sb)*int(sa) + int(canvas.Pix[dstIdx+2])*int(da)*(255-int(sa))/255) / outA)
			canvas.Pix[dstIdx+3] = byte(outA)
		}
	}
}

func writeBMP(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bmp.Encode(f, img)
}
