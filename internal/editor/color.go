package editor

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color 是单元格颜色的文本表示: 要么是哨兵值 Transparent，要么是 "#RRGGBB"。
type Color string

// Transparent 表示未绘制的单元格。
const Transparent Color = "transparent"

// RGBA 是颜色的四通道显式表示。
type RGBA struct {
	R, G, B, A uint8
}

// Decode 将颜色解码为 RGBA。
// "transparent" 解码为 {0,0,0,0}；"#RRGGBB" 按 24 位大端 RGB 解码，A 恒为 255。
func Decode(c Color) (RGBA, error) {
	if c == Transparent {
		return RGBA{}, nil
	}
	if !isHexColor(string(c)) {
		return RGBA{}, fmt.Errorf("decode %q: %w", c, ErrInvalidColorFormat)
	}
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return RGBA{}, fmt.Errorf("decode %q: %v: %w", c, err, ErrInvalidColorFormat)
	}
	r, g, b := parsed.RGB255()
	return RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Encode 是 Decode 的逆操作。模型没有半透明，A 为 0 时编码为 Transparent，其余一律视为不透明。
func Encode(v RGBA) Color {
	if v.A == 0 {
		return Transparent
	}
	return Color(fmt.Sprintf("#%02X%02X%02X", v.R, v.G, v.B))
}

// Validate 检查颜色格式是否合法。
func Validate(c Color) error {
	_, err := Decode(c)
	return err
}

// Uint32 返回 0xRRGGBB 形式的整数，透明色返回 0。
func (v RGBA) Uint32() uint32 {
	return uint32(v.R)<<16 | uint32(v.G)<<8 | uint32(v.B)
}

func isHexColor(s string) bool {
	if len(s) != 7 || !strings.HasPrefix(s, "#") {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9':
		case 'a' <= c && c <= 'f':
		case 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
