package editor

// Cell 是渲染缓存中的一个单元格记录。
// R/G/B/A 只在序列化时填充，平时为 nil。
type Cell struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color Color  `json:"color"`
	R     *uint8 `json:"r,omitempty"`
	G     *uint8 `json:"g,omitempty"`
	B     *uint8 `json:"b,omitempty"`
	A     *uint8 `json:"a,omitempty"`
}

// RenderCache 是图层的稠密镜像，按 cache[x][y] 索引，用于顺序重绘。
// 它由图层派生，从不作为权威数据。
type RenderCache [][]Cell

// NewRenderCache 根据图层完整重建渲染缓存。
func NewRenderCache(l *Layer) RenderCache {
	rc := make(RenderCache, l.grid.width)
	for x := range rc {
		col := make([]Cell, l.grid.height)
		for y := range col {
			col[y] = Cell{X: x, Y: y, Color: l.at(x, y)}
		}
		rc[x] = col
	}
	return rc
}

// Update 用图层在 (x, y) 处的值刷新单个缓存单元格。
func (rc RenderCache) Update(l *Layer, x, y int) error {
	c, err := l.Get(x, y)
	if err != nil {
		return err
	}
	if x >= len(rc) || y >= len(rc[x]) {
		return ErrCoordinateOutOfRange
	}
	rc[x][y] = Cell{X: x, Y: y, Color: c}
	return nil
}

// Width 返回缓存的列数。
func (rc RenderCache) Width() int { return len(rc) }

// Height 返回缓存的行数，空缓存返回 0。
func (rc RenderCache) Height() int {
	if len(rc) == 0 {
		return 0
	}
	return len(rc[0])
}

// Clone 深拷贝缓存，包括已填充的通道值。
func (rc RenderCache) Clone() RenderCache {
	out := make(RenderCache, len(rc))
	for x, col := range rc {
		cp := make([]Cell, len(col))
		for y, cell := range col {
			cp[y] = Cell{
				X: cell.X, Y: cell.Y, Color: cell.Color,
				R: copyChannel(cell.R), G: copyChannel(cell.G), B: copyChannel(cell.B), A: copyChannel(cell.A),
			}
		}
		out[x] = cp
	}
	return out
}

func channel(v uint8) *uint8 { return &v }

func copyChannel(p *uint8) *uint8 {
	if p == nil {
		return nil
	}
	return channel(*p)
}
