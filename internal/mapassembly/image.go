// Package mapassembly builds solver-ready particle/connection data from
// a source image, and assembles/serializes the on-disk Map format.
package mapassembly

import (
	"image/color"

	"github.com/fogleman/gg"

	"fight-club/internal/solver"
)

// Layer is a lattice of optional particles sampled from a source image.
// Cell (i, j) maps to a hex-lattice world position via solver.ShiftX/
// solver.ShiftY; a fully-transparent source pixel leaves that cell
// empty.
type Layer struct {
	Width, Height int
	cells         []*solver.Particle
	origin        solver.Vec2
}

// NewLayer allocates an empty width*height lattice.
func NewLayer(width, height int, origin solver.Vec2) *Layer {
	return &Layer{
		Width:  width,
		Height: height,
		cells:  make([]*solver.Particle, width*height),
		origin: origin,
	}
}

func (l *Layer) index(i, j int) int { return j*l.Width + i }

// At returns the particle occupying lattice cell (i, j), or nil if empty.
func (l *Layer) At(i, j int) *solver.Particle {
	return l.cells[l.index(i, j)]
}

// Position returns the world-space position of lattice cell (i, j).
func (l *Layer) Position(i, j int) solver.Vec2 {
	return l.origin.Add(solver.ShiftX.Scale(float32(i))).Add(solver.ShiftY.Scale(float32(j)))
}

// palette maps a sampled pixel's hue/saturation band to the particle
// preset placed there. This mapping is this repo's own choice: the
// original ties palette selection to interactive editor tooling (brush
// selection in a GUI), which is out of scope; the pixel-walk and
// placement algorithm below is in scope and is what this function
// performs.
func paletteFor(c color.RGBA) solver.Particle {
	switch {
	case c.R > 200 && c.G < 80 && c.B < 80:
		return solver.Spike
	case c.R > 150 && c.G > 150 && c.B > 150:
		return solver.Metal
	default:
		return solver.Ground
	}
}

// InitFromImage decodes the PNG at path and walks a width*height hex
// lattice, sampling the nearest source pixel for each lattice point. A
// fully transparent pixel (alpha == 0) leaves that cell empty; otherwise
// a particle is placed there using the pixel's color and palette-derived
// kind.
func InitFromImage(path string, width, height int, origin solver.Vec2) (*Layer, error) {
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	scaleX := float64(bounds.Dx()) / float64(width)
	scaleY := float64(bounds.Dy()) / float64(height)

	layer := NewLayer(width, height, origin)

	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			srcX := bounds.Min.X + int(float64(i)*scaleX)
			srcY := bounds.Max.Y - 1 - int(float64(j)*scaleY)
			if srcX < bounds.Min.X || srcX >= bounds.Max.X || srcY < bounds.Min.Y || srcY >= bounds.Max.Y {
				continue
			}

			rgba := color.RGBAModel.Convert(img.At(srcX, srcY)).(color.RGBA)
			if rgba.A == 0 {
				continue
			}

			p := paletteFor(rgba)
			p = p.WithColor([4]float32{
				float32(rgba.R) / 255,
				float32(rgba.G) / 255,
				float32(rgba.B) / 255,
				float32(rgba.A) / 255,
			})
			p = p.WithPosition(layer.Position(i, j))
			layer.cells[layer.index(i, j)] = &p
		}
	}

	return layer, nil
}

// GetParticles returns every occupied cell's particle, in row-major
// order.
func (l *Layer) GetParticles() []solver.Particle {
	out := make([]solver.Particle, 0, len(l.cells))
	for _, p := range l.cells {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// GetConnections links every occupied cell to its occupied right,
// upper-right and upper-left hex neighbors with a Rigid connection whose
// length is the current distance between the two particles (1 in grid
// units on the lattice) — this is the "triangular packing" connection
// sampling: visiting those three forward neighbors from every cell
// covers each edge of the triangular tiling exactly once.
func (l *Layer) GetConnections(elasticity, durability float32) []solver.Connection {
	var conns []solver.Connection
	indexOf := make(map[int]int, len(l.cells))
	particles := make([]solver.Particle, 0, len(l.cells))

	for j := 0; j < l.Height; j++ {
		for i := 0; i < l.Width; i++ {
			if p := l.At(i, j); p != nil {
				indexOf[l.index(i, j)] = len(particles)
				particles = append(particles, *p)
			}
		}
	}

	neighborOffsets := [][2]int{{1, 0}, {0, 1}, {-1, 1}}
	for j := 0; j < l.Height; j++ {
		for i := 0; i < l.Width; i++ {
			self, ok := indexOf[l.index(i, j)]
			if !ok {
				continue
			}
			for _, off := range neighborOffsets {
				ni, nj := i+off[0], j+off[1]
				if ni < 0 || ni >= l.Width || nj < 0 || nj >= l.Height {
					continue
				}
				other, ok := indexOf[l.index(ni, nj)]
				if !ok {
					continue
				}
				length := particles[self].Pos.Sub(particles[other].Pos).Length()
				conns = append(conns, solver.Connection{
					I: self, J: other,
					Link: solver.Link{Tag: solver.LinkRigid, Length: length, Durability: durability, Elasticity: elasticity},
				})
			}
		}
	}
	return conns
}
