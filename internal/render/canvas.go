// Package render draws the scene as a top-down character plot for the
// terminal viewport.
package render

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"

	"compasview/internal/scene"
)

var ErrNoGeometry = errors.New("object has no geometry")

type Mode int

const (
	ModePerspective3D Mode = iota
	ModeLayout
)

func (m Mode) String() string {
	if m == ModeLayout {
		return "layout"
	}
	return "3d"
}

const (
	minZoom = 0.1
	maxZoom = 10

	// World units visible vertically at zoom 1.
	spanPerspective = 12.0
	spanLayout      = 0.7

	// A4 sheet, in meters.
	sheetWidth  = 0.210
	sheetHeight = 0.297
)

type Camera struct {
	CenterX float64
	CenterY float64
	Zoom    float64
}

func defaultCamera() Camera {
	return Camera{Zoom: 1}
}

type node struct {
	object scene.Object
}

// Stats counts engine resources, mainly for diagnostics and tests.
type Stats struct {
	Live           int
	Attached       int
	Built          int
	Released       int
	DoubleReleases int
}

// Canvas is an arena of render nodes keyed by handle. Attached nodes form
// the scene graph drawn by Render.
type Canvas struct {
	mu       sync.Mutex
	next     scene.Handle
	nodes    map[scene.Handle]*node
	attached map[scene.Handle]struct{}
	stats    Stats
	camera   Camera
	mode     Mode
}

func NewCanvas() *Canvas {
	return &Canvas{
		nodes:    make(map[scene.Handle]*node),
		attached: make(map[scene.Handle]struct{}),
		camera:   defaultCamera(),
	}
}

func (c *Canvas) Build(obj scene.Object) (scene.Handle, error) {
	if obj.Geometry == nil {
		return 0, ErrNoGeometry
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.nodes[c.next] = &node{object: obj}
	c.stats.Built++
	return c.next, nil
}

func (c *Canvas) Attach(h scene.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodes[h]; ok {
		c.attached[h] = struct{}{}
	}
}

func (c *Canvas) Detach(h scene.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attached, h)
}

func (c *Canvas) Release(h scene.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodes[h]; !ok {
		c.stats.DoubleReleases++
		return
	}
	delete(c.nodes, h)
	delete(c.attached, h)
	c.stats.Released++
}

func (c *Canvas) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Live = len(c.nodes)
	s.Attached = len(c.attached)
	return s
}

func (c *Canvas) Camera() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camera
}

func (c *Canvas) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches the view and resets the camera.
func (c *Canvas) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
	c.camera = defaultCamera()
}

// Pan moves the camera by a fraction of the visible span.
func (c *Canvas) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	span := c.spanLocked()
	c.camera.CenterX += dx * span
	c.camera.CenterY += dy * span
}

func (c *Canvas) ZoomBy(factor float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if factor <= 0 {
		return
	}
	c.camera.Zoom = math.Max(minZoom, math.Min(maxZoom, c.camera.Zoom*factor))
}

func (c *Canvas) ResetCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera = defaultCamera()
}

func (c *Canvas) spanLocked() float64 {
	base := spanPerspective
	if c.mode == ModeLayout {
		base = spanLayout
	}
	return base / c.camera.Zoom
}

type plotter struct {
	cells  [][]rune
	width  int
	height int
	cx, cy float64
	sx, sy float64
}

func (p *plotter) toCell(x, y float64) (int, int) {
	col := int(math.Round(float64(p.width)/2 + (x-p.cx)*p.sx))
	row := int(math.Round(float64(p.height)/2 - (y-p.cy)*p.sy))
	return col, row
}

func (p *plotter) set(col, row int, r rune) {
	if row < 0 || row >= p.height || col < 0 || col >= p.width {
		return
	}
	p.cells[row][col] = r
}

func (p *plotter) plot(x, y float64, r rune) {
	col, row := p.toCell(x, y)
	p.set(col, row, r)
}

func (p *plotter) fillRect(x0, y0, x1, y1 float64, r rune) {
	c0, r0 := p.toCell(x0, y1)
	c1, r1 := p.toCell(x1, y0)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			p.set(col, row, r)
		}
	}
}

func (p *plotter) outlineRect(x0, y0, x1, y1 float64) {
	c0, r0 := p.toCell(x0, y1)
	c1, r1 := p.toCell(x1, y0)
	for col := c0; col <= c1; col++ {
		p.set(col, r0, '-')
		p.set(col, r1, '-')
	}
	for row := r0; row <= r1; row++ {
		p.set(c0, row, '|')
		p.set(c1, row, '|')
	}
	p.set(c0, r0, '+')
	p.set(c1, r0, '+')
	p.set(c0, r1, '+')
	p.set(c1, r1, '+')
}

func (p *plotter) fillDisc(x, y, radius float64, r rune) {
	c0, r0 := p.toCell(x-radius, y+radius)
	c1, r1 := p.toCell(x+radius, y-radius)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			wx := p.cx + (float64(col)-float64(p.width)/2)/p.sx
			wy := p.cy - (float64(row)-float64(p.height)/2)/p.sy
			if math.Hypot(wx-x, wy-y) <= radius {
				p.set(col, row, r)
			}
		}
	}
	p.plot(x, y, r)
}

// Render draws the attached nodes into a width x height block of text.
// Terminal cells are about twice as tall as wide, so x is scaled by two.
func (c *Canvas) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	c.mu.Lock()
	mode := c.mode
	cam := c.camera
	span := c.spanLocked()
	handles := make([]scene.Handle, 0, len(c.attached))
	for h := range c.attached {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	objects := make([]scene.Object, 0, len(handles))
	for _, h := range handles {
		objects = append(objects, c.nodes[h].object)
	}
	c.mu.Unlock()

	p := &plotter{
		cells:  make([][]rune, height),
		width:  width,
		height: height,
		cx:     cam.CenterX,
		cy:     cam.CenterY,
	}
	p.sy = float64(height) / span
	p.sx = p.sy * 2
	for row := range p.cells {
		p.cells[row] = []rune(strings.Repeat(" ", width))
	}

	if mode == ModeLayout {
		p.outlineRect(-sheetWidth/2, -sheetHeight/2, sheetWidth/2, sheetHeight/2)
	} else {
		drawAxes(p)
	}
	for _, obj := range objects {
		drawObject(p, obj)
	}

	lines := make([]string, height)
	for row, cells := range p.cells {
		lines[row] = string(cells)
	}
	return strings.Join(lines, "\n")
}

func drawAxes(p *plotter) {
	originCol, originRow := p.toCell(0, 0)
	if originRow >= 0 && originRow < p.height {
		for col := 0; col < p.width; col++ {
			p.set(col, originRow, '-')
		}
	}
	if originCol >= 0 && originCol < p.width {
		for row := 0; row < p.height; row++ {
			p.set(originCol, row, '|')
		}
	}
	p.set(originCol, originRow, '+')
}

// Glyph is the character used to draw objects of the given kind.
func Glyph(k scene.Kind) rune {
	switch k {
	case scene.KindBox:
		return '#'
	case scene.KindSphere:
		return 'o'
	case scene.KindPoint:
		return '•'
	case scene.KindCylinder:
		return '@'
	case scene.KindMesh:
		return '*'
	default:
		return '?'
	}
}

func drawObject(p *plotter, obj scene.Object) {
	pos := obj.Placement.Position
	glyph := Glyph(obj.Kind())
	switch g := obj.Geometry.(type) {
	case scene.Box:
		p.fillRect(pos[0]-g.XSize/2, pos[1]-g.YSize/2, pos[0]+g.XSize/2, pos[1]+g.YSize/2, glyph)
		p.plot(pos[0], pos[1], glyph)
	case scene.Sphere:
		p.fillDisc(pos[0], pos[1], g.Radius, glyph)
	case scene.Cylinder:
		p.fillDisc(pos[0], pos[1], g.Radius, glyph)
	case scene.Point:
		p.plot(pos[0], pos[1], glyph)
	case scene.Mesh:
		for _, v := range g.Vertices {
			p.plot(pos[0]+v[0], pos[1]+v[1], glyph)
		}
	}
}
