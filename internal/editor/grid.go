package editor

import "fmt"

// 默认网格尺寸
const (
	DefaultWidth  = 16
	DefaultHeight = 16
)

// Point 是网格坐标。
type Point struct {
	X, Y int
}

// Grid 是固定尺寸的二维坐标空间，只描述几何，不持有颜色。
type Grid struct {
	width, height int
}

// NewGrid 创建网格，宽高必须为正整数。
func NewGrid(width, height int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("grid %dx%d: %w", width, height, ErrInvalidGrid)
	}
	return Grid{width: width, height: height}, nil
}

// DefaultGrid 返回 16x16 的默认网格。
func DefaultGrid() Grid {
	return Grid{width: DefaultWidth, height: DefaultHeight}
}

func (g Grid) Width() int  { return g.width }
func (g Grid) Height() int { return g.height }

// Size 返回单元格总数。
func (g Grid) Size() int { return g.width * g.height }

// Contains 判断坐标是否落在网格内。
func (g Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g Grid) check(x, y int) error {
	if !g.Contains(x, y) {
		return fmt.Errorf("(%d,%d) outside %dx%d: %w", x, y, g.width, g.height, ErrCoordinateOutOfRange)
	}
	return nil
}
