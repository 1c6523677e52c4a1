package editor

import (
	"image"
	"image/color"
)

// Layer 是网格上权威的颜色分配，按坐标索引存储。
// 每个坐标都有值，新图层全部为 Transparent。
type Layer struct {
	grid   Grid
	colors map[Point]Color
}

// NewLayer 创建一个全透明的图层，复杂度 O(width*height)。
func NewLayer(grid Grid) *Layer {
	l := &Layer{
		grid:   grid,
		colors: make(map[Point]Color, grid.Size()),
	}
	for x := 0; x < grid.width; x++ {
		for y := 0; y < grid.height; y++ {
			l.colors[Point{X: x, Y: y}] = Transparent
		}
	}
	return l
}

// Grid 返回图层所在的网格。
func (l *Layer) Grid() Grid { return l.grid }

// Get 返回坐标处的颜色。
func (l *Layer) Get(x, y int) (Color, error) {
	if err := l.grid.check(x, y); err != nil {
		return "", err
	}
	return l.colors[Point{X: x, Y: y}], nil
}

// Set 覆盖坐标处的颜色。颜色相同时调用方应跳过历史记录和缓存更新。
func (l *Layer) Set(x, y int, c Color) error {
	if err := l.grid.check(x, y); err != nil {
		return err
	}
	l.colors[Point{X: x, Y: y}] = c
	return nil
}

// at 供内部在已确认坐标合法时使用
func (l *Layer) at(x, y int) Color {
	return l.colors[Point{X: x, Y: y}]
}

// Clone 逐项复制所有坐标到新图层，返回的图层与原图层不共享任何存储。
func (l *Layer) Clone() *Layer {
	c := &Layer{
		grid:   l.grid,
		colors: make(map[Point]Color, len(l.colors)),
	}
	for p, v := range l.colors {
		c.colors[p] = v
	}
	return c
}

// Equal 判断两个图层的尺寸和每个单元格颜色是否完全一致。
func (l *Layer) Equal(other *Layer) bool {
	if other == nil || l.grid != other.grid || len(l.colors) != len(other.colors) {
		return false
	}
	for p, v := range l.colors {
		if other.colors[p] != v {
			return false
		}
	}
	return true
}

// Image 将图层栅格化为 NRGBA 图像，一个单元格对应一个像素。无法解码的颜色按透明处理。
func (l *Layer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, l.grid.width, l.grid.height))
	for p, v := range l.colors {
		rgba, err := Decode(v)
		if err != nil {
			continue
		}
		img.SetNRGBA(p.X, p.Y, color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: rgba.A})
	}
	return img
}

func cloneLayers(layers []*Layer) []*Layer {
	out := make([]*Layer, len(layers))
	for i, l := range layers {
		out[i] = l.Clone()
	}
	return out
}
