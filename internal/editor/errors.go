package editor

import "errors"

// 编辑器核心的错误类型
var (
	// ErrLayerNotFound 表示图层索引超出当前图层序列
	ErrLayerNotFound = errors.New("editor: layer not found")
	// ErrInvalidColorFormat 表示颜色字符串既不是 "transparent" 也不是 "#RRGGBB"
	ErrInvalidColorFormat = errors.New("editor: invalid color format")
	// ErrCoordinateOutOfRange 表示直接访问了网格范围之外的单元格
	ErrCoordinateOutOfRange = errors.New("editor: coordinate out of range")

	// ErrInvalidGrid 表示网格尺寸不是正整数
	ErrInvalidGrid = errors.New("editor: invalid grid dimensions")
	// ErrDimensionMismatch 表示载入的图像尺寸与当前网格不一致
	ErrDimensionMismatch = errors.New("editor: image dimensions do not match grid")
	// ErrTooManyLayers 表示图层数量已达上限
	ErrTooManyLayers = errors.New("editor: too many layers")
)
