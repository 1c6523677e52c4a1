package editor

import (
	"encoding/json"
	"fmt"
)

// ImageRecord 是可持久化的图像记录。Data 是带显式 r,g,b,a 通道的渲染缓存的 JSON 编码。
type ImageRecord struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   string `json:"data"`
}

// Serialize 为每个单元格解码颜色并附加通道值，然后把整个二维数组编码进 Data。
// 源缓存不会被修改。
func Serialize(rc RenderCache, name string) (ImageRecord, error) {
	out := rc.Clone()
	for x := range out {
		for y := range out[x] {
			cell := &out[x][y]
			v, err := Decode(cell.Color)
			if err != nil {
				return ImageRecord{}, fmt.Errorf("serialize cell (%d,%d): %w", x, y, err)
			}
			cell.R, cell.G, cell.B, cell.A = channel(v.R), channel(v.G), channel(v.B), channel(v.A)
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("failed to marshal render cache: %w", err)
	}
	return ImageRecord{
		Name:   name,
		Width:  out.Width(),
		Height: out.Height(),
		Data:   string(data),
	}, nil
}

// ParseImageRecord 把记录还原为渲染缓存，并校验尺寸、坐标和颜色。
// 返回的缓存不带通道值，与 NewRenderCache 的结果形状一致。
func ParseImageRecord(rec ImageRecord) (RenderCache, error) {
	if _, err := NewGrid(rec.Width, rec.Height); err != nil {
		return nil, fmt.Errorf("image %q: %w", rec.Name, err)
	}
	var rc RenderCache
	if err := json.Unmarshal([]byte(rec.Data), &rc); err != nil {
		return nil, fmt.Errorf("image %q: failed to unmarshal data: %w", rec.Name, err)
	}
	if rc.Width() != rec.Width {
		return nil, fmt.Errorf("image %q: data has %d columns, record says %d: %w", rec.Name, rc.Width(), rec.Width, ErrDimensionMismatch)
	}
	for x, col := range rc {
		if len(col) != rec.Height {
			return nil, fmt.Errorf("image %q: column %d has %d cells, record says %d: %w", rec.Name, x, len(col), rec.Height, ErrDimensionMismatch)
		}
		for y, cell := range col {
			if cell.X != x || cell.Y != y {
				return nil, fmt.Errorf("image %q: cell at [%d][%d] claims (%d,%d): %w", rec.Name, x, y, cell.X, cell.Y, ErrCoordinateOutOfRange)
			}
			if err := Validate(cell.Color); err != nil {
				return nil, fmt.Errorf("image %q: cell (%d,%d): %w", rec.Name, x, y, err)
			}
			col[y] = Cell{X: x, Y: y, Color: cell.Color}
		}
	}
	return rc, nil
}

// LayerFromRecord 把记录解析成一个新图层。
func LayerFromRecord(rec ImageRecord) (*Layer, error) {
	rc, err := ParseImageRecord(rec)
	if err != nil {
		return nil, err
	}
	grid, _ := NewGrid(rec.Width, rec.Height)
	l := NewLayer(grid)
	for x, col := range rc {
		for y, cell := range col {
			l.colors[Point{X: x, Y: y}] = cell.Color
		}
	}
	return l, nil
}
