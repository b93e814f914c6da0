package cubeportal

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mdouchement/hdr"
	xdraw "golang.org/x/image/draw"
)

// Equirectangular environment maps are resampled to this base resolution;
// reflections are sampled per vertex so more detail is never visible.
const (
	envMapWidth  = 256
	envMapHeight = 128
)

// EnvMap is an equirectangular radiance map in linear light with a chain of
// progressively blurred levels for rough reflections.
type EnvMap struct {
	levels []envLevel
}

type envLevel struct {
	w, h int
	pix  []rgb
}

// NewEnvMap builds an environment map from an LDR image. Pixel values are
// treated as sRGB.
func NewEnvMap(src image.Image) *EnvMap {
	dst := image.NewRGBA(image.Rect(0, 0, envMapWidth, envMapHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	base := envLevel{w: envMapWidth, h: envMapHeight, pix: make([]rgb, envMapWidth*envMapHeight)}
	for i := range base.pix {
		o := i * 4
		base.pix[i] = rgb{
			srgbToLinear(float64(dst.Pix[o]) / 255),
			srgbToLinear(float64(dst.Pix[o+1]) / 255),
			srgbToLinear(float64(dst.Pix[o+2]) / 255),
		}
	}
	return newEnvMapFromLevel(base)
}

// NewEnvMapHDR builds an environment map from a high dynamic range image,
// preserving radiance above 1.
func NewEnvMapHDR(src hdr.Image) *EnvMap {
	b := src.Bounds()
	base := envLevel{w: envMapWidth, h: envMapHeight, pix: make([]rgb, envMapWidth*envMapHeight)}
	for y := 0; y < envMapHeight; y++ {
		sy0 := b.Min.Y + y*b.Dy()/envMapHeight
		sy1 := max(b.Min.Y+(y+1)*b.Dy()/envMapHeight, sy0+1)
		for x := 0; x < envMapWidth; x++ {
			sx0 := b.Min.X + x*b.Dx()/envMapWidth
			sx1 := max(b.Min.X+(x+1)*b.Dx()/envMapWidth, sx0+1)
			var sum rgb
			n := 0
			for sy := sy0; sy < sy1 && sy < b.Max.Y; sy++ {
				for sx := sx0; sx < sx1 && sx < b.Max.X; sx++ {
					r, g, bl, _ := src.HDRAt(sx, sy).HDRRGBA()
					sum = sum.add(rgb{r, g, bl})
					n++
				}
			}
			if n > 0 {
				base.pix[y*envMapWidth+x] = sum.scale(1 / float64(n))
			}
		}
	}
	return newEnvMapFromLevel(base)
}

func newEnvMapFromLevel(base envLevel) *EnvMap {
	m := &EnvMap{levels: []envLevel{base}}
	for l := base; l.w > 4 && l.h > 2; {
		l = l.halve()
		m.levels = append(m.levels, l)
	}
	return m
}

// halve box-filters the level to half resolution.
func (l envLevel) halve() envLevel {
	out := envLevel{w: l.w / 2, h: l.h / 2}
	out.pix = make([]rgb, out.w*out.h)
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			s := l.at(2*x, 2*y).add(l.at(2*x+1, 2*y)).
				add(l.at(2*x, 2*y+1)).add(l.at(2*x+1, 2*y+1))
			out.pix[y*out.w+x] = s.scale(0.25)
		}
	}
	return out
}

// at returns the texel at (x, y), wrapping horizontally and clamping
// vertically.
func (l envLevel) at(x, y int) rgb {
	x %= l.w
	if x < 0 {
		x += l.w
	}
	y = min(max(y, 0), l.h-1)
	return l.pix[y*l.w+x]
}

// bilinear samples at continuous texel coordinates.
func (l envLevel) bilinear(u, v float64) rgb {
	fx := u*float64(l.w) - 0.5
	fy := v*float64(l.h) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	top := l.at(x0, y0).scale(1 - tx).add(l.at(x0+1, y0).scale(tx))
	bot := l.at(x0, y0+1).scale(1 - tx).add(l.at(x0+1, y0+1).scale(tx))
	return top.scale(1 - ty).add(bot.scale(ty))
}

// Sample returns the radiance arriving from direction dir. Higher roughness
// reads blurrier levels.
func (m *EnvMap) Sample(dir mgl64.Vec3, roughness float64) rgb {
	if m == nil || len(m.levels) == 0 {
		return rgb{}
	}
	d := safeNormalize(dir)
	if d.Len() == 0 {
		return rgb{}
	}
	u := math.Atan2(d[2], d[0])/(2*math.Pi) + 0.5
	v := 0.5 - math.Asin(clamp(d[1], -1, 1))/math.Pi

	level := clamp01(roughness) * float64(len(m.levels)-1)
	l0 := int(level)
	if l0 >= len(m.levels)-1 {
		return m.levels[len(m.levels)-1].bilinear(u, v)
	}
	t := level - float64(l0)
	a := m.levels[l0].bilinear(u, v)
	if t == 0 {
		return a
	}
	b := m.levels[l0+1].bilinear(u, v)
	return a.scale(1 - t).add(b.scale(t))
}

// Size returns the base level dimensions.
func (m *EnvMap) Size() (w, h int) {
	if m == nil || len(m.levels) == 0 {
		return 0, 0
	}
	return m.levels[0].w, m.levels[0].h
}

// NewStudioEnvMap returns a procedural photo-studio environment: a dim floor,
// a soft gradient ceiling and two large softboxes.
func NewStudioEnvMap() *EnvMap {
	base := envLevel{w: envMapWidth, h: envMapHeight, pix: make([]rgb, envMapWidth*envMapHeight)}
	for y := 0; y < base.h; y++ {
		// elevation in [-pi/2, pi/2], top row is straight up
		elev := (0.5 - (float64(y)+0.5)/float64(base.h)) * math.Pi
		for x := 0; x < base.w; x++ {
			azim := ((float64(x)+0.5)/float64(base.w) - 0.5) * 2 * math.Pi
			var c rgb
			if elev < 0 {
				c = rgb{0.02, 0.02, 0.02}
			} else {
				t := elev / (math.Pi / 2)
				c = rgb{0.15, 0.15, 0.16}.scale(1 - t).add(rgb{0.35, 0.35, 0.36}.scale(t))
			}
			c = c.add(softbox(azim, elev, math.Pi/4, 0.5, 0.35, 0.25, 6))
			c = c.add(softbox(azim, elev, -3*math.Pi/4, 0.3, 0.4, 0.2, 3))
			base.pix[y*base.w+x] = c
		}
	}
	return newEnvMapFromLevel(base)
}

// softbox returns the radiance of a rectangular area light centered at
// (azim0, elev0) with half-extents (hw, hh), feathered at the edges.
func softbox(azim, elev, azim0, elev0, hw, hh, intensity float64) rgb {
	da := math.Abs(math.Remainder(azim-azim0, 2*math.Pi))
	de := math.Abs(elev - elev0)
	if da > hw || de > hh {
		return rgb{}
	}
	fa := clamp01((hw - da) / (hw * 0.2))
	fe := clamp01((hh - de) / (hh * 0.2))
	return rgb{1, 1, 1}.scale(intensity * fa * fe)
}
