// Package preview 把保存的像素图栅格化为可下载的位图。
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"pixel-editor/internal/editor"
)

const (
	DefaultScale = 16
	MaxScale     = 64
)

// Format 是预览图的编码格式
type Format string

const (
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
)

var (
	ErrInvalidScale      = errors.New("preview: scale out of range")
	ErrUnsupportedFormat = errors.New("preview: unsupported format")
)

// ParseFormat 解析格式名，空字符串按 PNG 处理
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatBMP:
		return FormatBMP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType 返回格式对应的 MIME 类型
func (f Format) ContentType() string {
	if f == FormatBMP {
		return "image/bmp"
	}
	return "image/png"
}

// Render 把图像记录的每个单元格放大为 scale×scale 的像素块。
func Render(rec editor.ImageRecord, scale int) (*image.NRGBA, error) {
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("%w: %d (1..%d)", ErrInvalidScale, scale, MaxScale)
	}
	layer, err := editor.LayerFromRecord(rec)
	if err != nil {
		return nil, err
	}
	src := layer.Image()
	if scale == 1 {
		return src, nil
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, nil
}

// Encode 按格式把图像写入 w
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}
