package main

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// showPreview draws the saved PNG into the terminal and waits for a key. It
// does nothing when stdin or stdout is not a terminal.
func showPreview(pngPath string, log *zap.Logger) error {
	in, out := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	if !term.IsTerminal(out) || !term.IsTerminal(in) {
		log.Debug("no terminal, preview skipped")
		return nil
	}

	defer enableVT()()

	f, err := os.Open(pngPath)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", pngPath, err)
	}

	cols, rows, err := term.GetSize(out)
	if err != nil || cols <= 0 || rows <= 0 {
		cols, rows = defaultCols, defaultRows
	}
	// Leave room for the prompt line.
	w, h := fitSize(img.Bounds().Dx(), img.Bounds().Dy(), cols, 2*(rows-2))

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	bw := bufio.NewWriter(os.Stdout)
	// Clear screen (ANSI reset to top + clear screen)
	fmt.Fprint(bw, "\033[H\033[2J")
	writeHalfBlocks(bw, small)
	fmt.Fprint(bw, "(press any key to close)")
	if err := bw.Flush(); err != nil {
		return err
	}

	oldState, err := term.MakeRaw(in)
	if err != nil {
		fmt.Println()
		return nil
	}
	defer term.Restore(in, oldState)

	var key [1]byte
	_, _ = os.Stdin.Read(key[:])
	fmt.Print("\r\n")
	return nil
}

// fitSize scales w x h to fit inside maxW x maxH keeping the aspect ratio.
// Each side is at least one pixel.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 1, 1
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	fw := min(max(int(math.Round(float64(w)*scale)), 1), maxW)
	fh := min(max(int(math.Round(float64(h)*scale)), 1), maxH)
	return fw, fh
}

// writeHalfBlocks prints two pixel rows per text line: the upper pixel as
// the foreground of "▀", the lower one as its background.
func writeHalfBlocks(w io.Writer, img image.Image) {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := rgb8(img, x, y)
			fmt.Fprintf(&sb, "\033[38;2;%d;%d;%dm", r, g, bl)
			if y+1 < b.Max.Y {
				r, g, bl = rgb8(img, x, y+1)
				fmt.Fprintf(&sb, "\033[48;2;%d;%d;%dm", r, g, bl)
			} else {
				sb.WriteString("\033[49m")
			}
			sb.WriteString("▀")
		}
		sb.WriteString("\033[0m\n")
	}
	io.WriteString(w, sb.String())
}

func rgb8(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}
