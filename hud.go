package cubeportal

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// hud draws FPS, TPS and render stats in the top-left corner. The label is
// refreshed every ~0.5 seconds.
type hud struct {
	source *text.GoTextFaceSource
	bg     *ebiten.Image

	label      string
	lastUpdate time.Time
}

func newHUD() *hud {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("cubeportal: failed to load HUD font: " + err.Error())
	}
	bg := ebiten.NewImage(1, 1)
	// Semi-transparent background for readability
	bg.Fill(color.RGBA{0, 0, 0, 128})
	return &hud{source: src, bg: bg}
}

// draw renders the overlay at the given device scale.
func (h *hud) draw(screen *ebiten.Image, stats RenderStats, scale float64) {
	if now := time.Now(); h.label == "" || now.Sub(h.lastUpdate) >= 500*time.Millisecond {
		h.lastUpdate = now
		h.label = fmt.Sprintf("FPS: %.1f  TPS: %.1f\npasses: %d  tris: %d\ndraw calls: %d  cpu: %v",
			ebiten.ActualFPS(), ebiten.ActualTPS(),
			stats.Passes, stats.Triangles, stats.DrawCalls, stats.Elapsed.Round(100*time.Microsecond))
	}

	if scale <= 0 {
		scale = 1
	}
	face := &text.GoTextFace{Source: h.source, Size: 12 * scale}
	lineSpacing := 16 * scale

	w, hgt := text.Measure(h.label, face, lineSpacing)
	var bgOp ebiten.DrawImageOptions
	bgOp.GeoM.Scale(w+12*scale, hgt+8*scale)
	screen.DrawImage(h.bg, &bgOp)

	op := &text.DrawOptions{}
	op.GeoM.Translate(6*scale, 4*scale)
	op.LineSpacing = lineSpacing
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, h.label, face, op)
}
