package editor

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultMaxLayers 是单个会话允许的默认图层上限。
const DefaultMaxLayers = 8

// DefaultColor 是新会话的默认画笔颜色。
const DefaultColor Color = "#000000"

// Options 配置一个编辑会话，零值字段使用默认值。
type Options struct {
	Width        int
	Height       int
	Layers       int // 初始图层数，默认 1
	MaxLayers    int
	HistoryLimit int
	Color        Color // 初始画笔颜色
}

// ToolState 是工具与选择状态的只读视图，不会被持久化。
type ToolState struct {
	CurrentColor  Color `json:"current_color"`
	SelectedLayer int   `json:"selected_layer"`
	Layers        int   `json:"layers"`
	Grid          bool  `json:"grid"`
	Fill          bool  `json:"fill"`
	Pressed       bool  `json:"pressed"`
	CanUndo       bool  `json:"can_undo"`
	CanRedo       bool  `json:"can_redo"`
}

// Session 是一个编辑会话，独占网格、图层、历史记录和每个图层的渲染缓存。
// Session 只允许单一写入者，不能并发使用。
type Session struct {
	grid      Grid
	layers    []*Layer
	caches    []RenderCache
	history   *History
	maxLayers int

	currentColor Color
	selected     int
	gridOverlay  bool
	fillMode     bool
	pressed      bool
	pending      bool // 当前历史条目尚未写入笔画结束后的状态
}

// NewSession 创建编辑会话。
func NewSession(opts Options) (*Session, error) {
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = DefaultWidth, DefaultHeight
	}
	grid, err := NewGrid(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	if opts.MaxLayers <= 0 {
		opts.MaxLayers = DefaultMaxLayers
	}
	if opts.Layers <= 0 {
		opts.Layers = 1
	}
	if opts.Layers > opts.MaxLayers {
		return nil, fmt.Errorf("%d initial layers, max %d: %w", opts.Layers, opts.MaxLayers, ErrTooManyLayers)
	}
	if opts.Color == "" {
		opts.Color = DefaultColor
	}
	if err := Validate(opts.Color); err != nil {
		return nil, err
	}

	s := &Session{
		grid:         grid,
		maxLayers:    opts.MaxLayers,
		currentColor: opts.Color,
	}
	for i := 0; i < opts.Layers; i++ {
		s.layers = append(s.layers, NewLayer(grid))
	}
	s.rebuildCaches()
	s.history = NewHistory(s.layers, opts.HistoryLimit)
	return s, nil
}

// Grid 返回会话的网格。
func (s *Session) Grid() Grid { return s.grid }

// LayerCount 返回图层数量。
func (s *Session) LayerCount() int { return len(s.layers) }

// RenderCache 返回指定图层渲染缓存的副本。
func (s *Session) RenderCache(layerIndex int) (RenderCache, error) {
	if err := s.checkLayer(layerIndex); err != nil {
		return nil, err
	}
	return s.caches[layerIndex].Clone(), nil
}

// Layers 返回所有图层的深拷贝。
func (s *Session) Layers() []*Layer {
	return cloneLayers(s.layers)
}

// SetCurrentColor 设置画笔颜色。
func (s *Session) SetCurrentColor(c Color) error {
	if err := Validate(c); err != nil {
		return err
	}
	s.currentColor = c
	return nil
}

// SetSelectedLayerIndex 切换当前图层。
func (s *Session) SetSelectedLayerIndex(i int) error {
	if err := s.checkLayer(i); err != nil {
		return err
	}
	s.selected = i
	return nil
}

// SetGridOverlay 切换网格叠加显示。
func (s *Session) SetGridOverlay(on bool) { s.gridOverlay = on }

// SetFillMode 切换填充模式。
func (s *Session) SetFillMode(on bool) { s.fillMode = on }

// State 返回当前工具状态。
func (s *Session) State() ToolState {
	return ToolState{
		CurrentColor:  s.currentColor,
		SelectedLayer: s.selected,
		Layers:        len(s.layers),
		Grid:          s.gridOverlay,
		Fill:          s.fillMode,
		Pressed:       s.pressed,
		CanUndo:       s.history.CanUndo(),
		CanRedo:       s.history.CanRedo(),
	}
}

// Touch 按当前工具分派一次单元格交互：填充模式下执行填充，否则写入单元格。
func (s *Session) Touch(x, y int) error {
	if s.fillMode {
		return s.ApplyFloodFill(x, y)
	}
	return s.ApplyCellWrite(x, y)
}

// ApplyCellWrite 用当前颜色写入选中图层的单元格。
// 颜色未变化时不产生历史记录也不更新缓存；一次笔画只在第一次真正写入时记录一次快照。
func (s *Session) ApplyCellWrite(x, y int) error {
	layer := s.layers[s.selected]
	current, err := layer.Get(x, y)
	if err != nil {
		return fmt.Errorf("write cell: %w", err)
	}
	if current == s.currentColor {
		return nil
	}
	if !s.pressed {
		s.commitPending()
		s.history.RecordBeforeStroke(s.layers)
		s.pressed = true
		s.pending = true
	}
	if err := layer.Set(x, y, s.currentColor); err != nil {
		return fmt.Errorf("write cell: %w", err)
	}
	return s.caches[s.selected].Update(layer, x, y)
}

// Release 结束当前笔画。笔画中写入的所有单元格作为一个撤销单元保留。
func (s *Session) Release() {
	s.pressed = false
	s.commitPending()
}

// ApplyFloodFill 以当前颜色从 (x, y) 开始填充选中图层。
// 每次调用都会记录一条历史，即使填充颜色与目标颜色相同、没有任何单元格被修改。
func (s *Session) ApplyFloodFill(x, y int) error {
	s.Release()
	s.history.RecordBeforeStroke(s.layers)
	layer := s.layers[s.selected]
	filled := FloodFill(layer, x, y, s.currentColor)
	if filled > 0 {
		s.caches[s.selected] = NewRenderCache(layer)
	}
	s.history.Commit(s.layers)
	logger().WithFields(logrus.Fields{"layer": s.selected, "x": x, "y": y, "filled": filled}).Debug("Session: flood fill applied")
	return nil
}

// Undo 撤销一步，成功时重建所有图层的渲染缓存。
func (s *Session) Undo() bool {
	s.Release()
	layers, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(layers)
	return true
}

// Redo 重做一步，成功时重建所有图层的渲染缓存。
func (s *Session) Redo() bool {
	s.Release()
	layers, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(layers)
	return true
}

// ClearLayer 用全新的透明图层替换指定图层，作为一个可撤销操作。
func (s *Session) ClearLayer(i int) error {
	if err := s.checkLayer(i); err != nil {
		return fmt.Errorf("clear layer: %w", err)
	}
	s.Release()
	s.history.RecordBeforeStroke(s.layers)
	s.layers[i] = NewLayer(s.grid)
	s.caches[i] = NewRenderCache(s.layers[i])
	s.history.Commit(s.layers)
	return nil
}

// AddLayer 在末尾追加一个透明图层并返回其索引，作为一个可撤销操作。
func (s *Session) AddLayer() (int, error) {
	if len(s.layers) >= s.maxLayers {
		return 0, fmt.Errorf("add layer: %w", ErrTooManyLayers)
	}
	s.Release()
	s.history.RecordBeforeStroke(s.layers)
	l := NewLayer(s.grid)
	s.layers = append(s.layers, l)
	s.caches = append(s.caches, NewRenderCache(l))
	s.history.Commit(s.layers)
	return len(s.layers) - 1, nil
}

// LoadImage 用图像记录替换选中图层，作为一个可撤销操作。记录尺寸必须与网格一致。
func (s *Session) LoadImage(rec ImageRecord) error {
	l, err := LayerFromRecord(rec)
	if err != nil {
		return err
	}
	if l.grid != s.grid {
		return fmt.Errorf("load %q (%dx%d) into %dx%d: %w", rec.Name, rec.Width, rec.Height, s.grid.width, s.grid.height, ErrDimensionMismatch)
	}
	s.Release()
	s.history.RecordBeforeStroke(s.layers)
	s.layers[s.selected] = l
	s.caches[s.selected] = NewRenderCache(l)
	s.history.Commit(s.layers)
	return nil
}

// SerializeForSave 把选中图层的渲染缓存序列化为图像记录。
func (s *Session) SerializeForSave(name string) (ImageRecord, error) {
	return Serialize(s.caches[s.selected], name)
}

func (s *Session) checkLayer(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("layer %d of %d: %w", i, len(s.layers), ErrLayerNotFound)
	}
	return nil
}

func (s *Session) commitPending() {
	if s.pending {
		s.history.Commit(s.layers)
		s.pending = false
	}
}

func (s *Session) restore(layers []*Layer) {
	s.layers = layers
	if s.selected >= len(s.layers) {
		s.selected = len(s.layers) - 1
	}
	s.rebuildCaches()
}

func (s *Session) rebuildCaches() {
	s.caches = make([]RenderCache, len(s.layers))
	for i, l := range s.layers {
		s.caches[i] = NewRenderCache(l)
	}
}
