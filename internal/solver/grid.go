package solver

// CellCapacity bounds how many particle indices a single grid cell can
// hold. A cell that is already full silently drops further pushes —
// no error, no growth — bounding worst-case work per tick at the cost of
// degraded fidelity in crowded cells. Mirrors the fixed-capacity bucket
// idiom the rest of this codebase uses for broad-phase collision.
const CellCapacity = 4

// GridCell is a fixed-capacity bucket of particle indices.
type GridCell struct {
	elements [CellCapacity]int
	len      int
}

// Push appends idx to the cell if there is room; otherwise it is dropped.
func (c *GridCell) Push(idx int) {
	if c.len < CellCapacity {
		c.elements[c.len] = idx
		c.len++
	}
}

// Indices returns the occupied slice of this cell's particle indices.
func (c *GridCell) Indices() []int {
	return c.elements[:c.len]
}

func (c *GridCell) clear() { c.len = 0 }

// Grid is a 2D array of fixed-capacity cells covering the solver's
// constraint bounds, with a one-cell sentinel apron on every side so
// neighbor lookups never need a bounds check. Cell size equals the
// particle diameter.
type Grid struct {
	cols, rows int
	cellSize   float32
	origin     Vec2 // bottom-left of the apron, i.e. constraint.BottomLeft - cellSize
	cells      []GridCell
}

// NewGrid builds a grid sized to cover c with a one-cell apron on each
// side, using cellSize = 2*radius (particle diameter).
func NewGrid(c Constraint, cellSize float32) *Grid {
	width := c.TopRight.X - c.BottomLeft.X
	height := c.TopRight.Y - c.BottomLeft.Y

	cols := int(width/cellSize) + 3 // +2 apron, +1 to round up
	rows := int(height/cellSize) + 3

	return &Grid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		origin:   Vec2{c.BottomLeft.X - cellSize, c.BottomLeft.Y - cellSize},
		cells:    make([]GridCell, cols*rows),
	}
}

// Clear empties every cell without deallocating the backing slice.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i].clear()
	}
}

// CellCoords maps a world position to clamped (col, row) grid coordinates.
func (g *Grid) CellCoords(pos Vec2) (int, int) {
	col := int((pos.X - g.origin.X) / g.cellSize)
	row := int((pos.Y - g.origin.Y) / g.cellSize)
	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// Insert places particle idx into the cell its position maps to.
func (g *Grid) Insert(idx int, pos Vec2) {
	col, row := g.CellCoords(pos)
	g.At(col, row).Push(idx)
}

// At returns the cell at (col, row). Callers are expected to have
// obtained col/row from CellCoords, so no bounds checking is done here.
func (g *Grid) At(col, row int) *GridCell {
	return &g.cells[row*g.cols+col]
}

// Cols and Rows report grid dimensions, including the apron.
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }
