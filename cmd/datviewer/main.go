// datviewer displays composite settler sequences from a DAT container in
// an SDL2 window. Arrow keys step through frames and sequences.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"runtime"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/sied-dat/internal/config"
	"github.com/Faultbox/sied-dat/internal/logger"
	"github.com/Faultbox/sied-dat/pkg/dat"
)

func init() {
	// SDL event handling must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.LogFile,
		Console: true,
	})
	defer log.Sync()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: datviewer [flags] <file.dat>")
		os.Exit(1)
	}

	typ, err := cfg.FileType()
	if err != nil {
		log.Fatal("bad configuration", zap.Error(err))
	}

	d, err := dat.Open(flag.Arg(0), typ, dat.Options{
		OverrideDifferences: cfg.Data.OverrideDifferences,
		Logger:              log,
	})
	if err != nil {
		log.Fatal("opening container", zap.Error(err))
	}
	defer d.Close()

	if d.SequenceCount(dat.CategorySettlers) == 0 {
		log.Fatal("container has no settler sequences")
	}

	if err := run(d, cfg, log); err != nil {
		log.Fatal("viewer failed", zap.Error(err))
	}
}

func run(d *dat.Reader, cfg *config.Config, log *zap.Logger) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("SDL_Init failed: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(
		"datviewer",
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Viewer.Width),
		int32(cfg.Viewer.Height),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer renderer.Destroy()

	view := &viewState{d: d, renderer: renderer, scale: cfg.Viewer.Scale, log: log}
	view.clampScale()

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN {
					continue
				}
				switch e.Keysym.Sym {
				case sdl.K_ESCAPE, sdl.K_q:
					running = false
				case sdl.K_RIGHT:
					view.stepFrame(1)
				case sdl.K_LEFT:
					view.stepFrame(-1)
				case sdl.K_UP:
					view.stepSequence(1)
				case sdl.K_DOWN:
					view.stepSequence(-1)
				}
			}
		}

		if err := view.draw(); err != nil {
			return err
		}
		sdl.Delay(16)
	}
	return nil
}

type viewState struct {
	d        *dat.Reader
	renderer *sdl.Renderer
	scale    int
	log      *zap.Logger

	sequence int
	frame    int
}

func (v *viewState) clampScale() {
	if v.scale < 1 {
		v.scale = 1
	}
}

func (v *viewState) stepSequence(delta int) {
	count := v.d.SequenceCount(dat.CategorySettlers)
	v.sequence = (v.sequence + delta + count) % count
	v.frame = 0
	v.log.Debug("sequence selected", zap.Int("sequence", v.sequence))
}

func (v *viewState) stepFrame(delta int) {
	seq := v.d.SettlerSequenceSafe(v.sequence)
	if seq.Length() == 0 {
		return
	}
	v.frame = (v.frame + delta + seq.Length()) % seq.Length()
}

func (v *viewState) draw() error {
	v.renderer.SetDrawColor(40, 40, 40, 255)
	v.renderer.Clear()

	seq := v.d.SettlerSequenceSafe(v.sequence)
	frame := seq.FrameSafe(v.frame)
	if !frame.IsNull() {
		if err := v.drawImage(frame); err != nil {
			return err
		}
	}

	v.renderer.Present()
	return nil
}

// drawImage uploads the flattened frame into a streaming texture and
// copies it centered and scaled.
func (v *viewState) drawImage(frame *dat.Image) error {
	flat := flatten(frame)
	w := int32(flat.Rect.Dx())
	h := int32(flat.Rect.Dy())
	if w == 0 || h == 0 {
		return nil
	}

	texture, err := v.renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, w, h)
	if err != nil {
		return fmt.Errorf("creating texture: %w", err)
	}
	defer texture.Destroy()
	texture.SetBlendMode(sdl.BLENDMODE_BLEND)

	if err := texture.Update(nil, unsafe.Pointer(&flat.Pix[0]), flat.Stride); err != nil {
		return fmt.Errorf("uploading texture: %w", err)
	}

	dstW := w * int32(v.scale)
	dstH := h * int32(v.scale)
	winW, winH, err := v.renderer.GetOutputSize()
	if err != nil {
		return err
	}
	dst := sdl.Rect{
		X: (winW - dstW) / 2,
		Y: (winH - dstH) / 2,
		W: dstW,
		H: dstH,
	}
	return v.renderer.Copy(texture, nil, &dst)
}

// flatten composes body, torso and shadow into one RGBA image.
func flatten(frame *dat.Image) *image.RGBA {
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
	for _, layer := range []*dat.Image{frame.Shadow, frame, frame.Torso} {
		if layer.IsNull() {
			continue
		}
		for py := 0; py < layer.Height; py++ {
			for px := 0; px < layer.Width; px++ {
				srcIdx := (py*layer.Width + px) * 4
				if layer.Pixels[srcIdx+3] == 0 {
					continue
				}
				dx := layer.OffsetX - minX + px
				dy := layer.OffsetY - minY + py
				dstIdx := canvas.PixOffset(dx, dy)
				copy(canvas.Pix[dstIdx:dstIdx+4], layer.Pixels[srcIdx:srcIdx+4])
			}
		}
	}
	return canvas
}
