package editor_test

import (
	"errors"
	"testing"

	"pixel-editor/internal/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, w, h int) *editor.Session {
	t.Helper()
	s, err := editor.NewSession(editor.Options{Width: w, Height: h})
	require.NoError(t, err)
	return s
}

func cacheColor(t *testing.T, s *editor.Session, layer, x, y int) editor.Color {
	t.Helper()
	rc, err := s.RenderCache(layer)
	require.NoError(t, err)
	return rc[x][y].Color
}

func TestSession_Defaults(t *testing.T) {
	s, err := editor.NewSession(editor.Options{})
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, 16, s.Grid().Width())
	assert.Equal(t, 16, s.Grid().Height())
	assert.Equal(t, editor.DefaultColor, st.CurrentColor)
	assert.Equal(t, 0, st.SelectedLayer)
	assert.Equal(t, 1, st.Layers)
	assert.False(t, st.CanUndo)
	assert.False(t, st.CanRedo)
}

func TestSession_PaintUndoRedoScenario(t *testing.T) {
	// 2x2 全透明: 写 (0,0) 红色 -> 撤销 -> 重做
	s := newSession(t, 2, 2)
	require.NoError(t, s.SetCurrentColor("#FF0000"))

	require.NoError(t, s.ApplyCellWrite(0, 0))
	s.Release()
	assert.Equal(t, editor.Color("#FF0000"), cacheColor(t, s, 0, 0, 0))
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 1, 0))
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 1))
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 1, 1))

	require.True(t, s.Undo())
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 0))

	require.True(t, s.Redo())
	assert.Equal(t, editor.Color("#FF0000"), cacheColor(t, s, 0, 0, 0))
}

func TestSession_UndoWithoutReleaseCommitsStroke(t *testing.T) {
	s := newSession(t, 2, 2)
	require.NoError(t, s.ApplyCellWrite(1, 1))

	require.True(t, s.Undo())
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 1, 1))
	require.True(t, s.Redo())
	assert.Equal(t, editor.DefaultColor, cacheColor(t, s, 0, 1, 1))
}

func TestSession_StrokeIsSingleUndoUnit(t *testing.T) {
	s := newSession(t, 4, 1)

	for x := 0; x < 4; x++ {
		require.NoError(t, s.ApplyCellWrite(x, 0))
	}
	s.Release()

	require.True(t, s.Undo())
	for x := 0; x < 4; x++ {
		assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, x, 0))
	}
	assert.False(t, s.Undo(), "整条笔画只应对应一个撤销单元")
}

func TestSession_RepeatedWriteSameColorSkipsHistory(t *testing.T) {
	s := newSession(t, 2, 2)
	require.NoError(t, s.SetCurrentColor(editor.Transparent))

	// 颜色相同的写入不开始笔画，也不产生历史
	require.NoError(t, s.ApplyCellWrite(0, 0))
	s.Release()
	assert.False(t, s.State().CanUndo)
	assert.False(t, s.State().Pressed)
}

func TestSession_UndoRedoRoundTrip(t *testing.T) {
	s := newSession(t, 3, 3)
	require.NoError(t, s.ApplyCellWrite(0, 0))
	require.NoError(t, s.ApplyCellWrite(1, 0))
	s.Release()
	require.NoError(t, s.SetCurrentColor("#00FF00"))
	require.NoError(t, s.ApplyFloodFill(2, 2))

	after := s.Layers()
	require.True(t, s.Undo())
	require.True(t, s.Redo())
	assert.True(t, after[0].Equal(s.Layers()[0]))

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.True(t, s.Layers()[0].Equal(editor.NewLayer(s.Grid())))
}

func TestSession_NewStrokeAfterUndoDiscardsRedo(t *testing.T) {
	s := newSession(t, 2, 2)
	require.NoError(t, s.ApplyCellWrite(0, 0))
	s.Release()
	require.True(t, s.Undo())
	require.True(t, s.State().CanRedo)

	require.NoError(t, s.ApplyCellWrite(1, 1))
	s.Release()

	assert.False(t, s.Redo())
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 0))
	assert.Equal(t, editor.DefaultColor, cacheColor(t, s, 0, 1, 1))
}

func TestSession_FillSameColorStillRecordsHistory(t *testing.T) {
	s := newSession(t, 2, 2)
	require.NoError(t, s.SetCurrentColor(editor.Transparent))

	require.NoError(t, s.ApplyFloodFill(0, 0))

	assert.True(t, s.State().CanUndo)
	require.True(t, s.Undo())
	assert.True(t, s.Layers()[0].Equal(editor.NewLayer(s.Grid())))
}

func TestSession_TouchDispatchesOnFillMode(t *testing.T) {
	s := newSession(t, 3, 3)

	require.NoError(t, s.Touch(1, 1))
	s.Release()
	assert.Equal(t, editor.DefaultColor, cacheColor(t, s, 0, 1, 1))
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 0))

	s.SetFillMode(true)
	require.NoError(t, s.SetCurrentColor("#FFFFFF"))
	require.NoError(t, s.Touch(0, 0))
	assert.Equal(t, editor.Color("#FFFFFF"), cacheColor(t, s, 0, 2, 2))
	assert.Equal(t, editor.DefaultColor, cacheColor(t, s, 0, 1, 1))
}

func TestSession_Errors(t *testing.T) {
	s := newSession(t, 2, 2)

	err := s.ApplyCellWrite(2, 0)
	assert.True(t, errors.Is(err, editor.ErrCoordinateOutOfRange))

	_, err = s.RenderCache(1)
	assert.True(t, errors.Is(err, editor.ErrLayerNotFound))
	assert.True(t, errors.Is(s.SetSelectedLayerIndex(-1), editor.ErrLayerNotFound))
	assert.True(t, errors.Is(s.ClearLayer(3), editor.ErrLayerNotFound))
	assert.True(t, errors.Is(s.SetCurrentColor("blue"), editor.ErrInvalidColorFormat))

	// 越界种子不是错误
	assert.NoError(t, s.ApplyFloodFill(-5, 9))
}

func TestSession_LayersAreIndependent(t *testing.T) {
	s := newSession(t, 2, 2)
	idx, err := s.AddLayer()
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	require.NoError(t, s.SetSelectedLayerIndex(1))
	require.NoError(t, s.ApplyCellWrite(0, 0))
	s.Release()

	assert.Equal(t, editor.DefaultColor, cacheColor(t, s, 1, 0, 0))
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 0))

	// 撤销后所有图层的缓存都要与图层一致
	require.True(t, s.Undo())
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 1, 0, 0))
	require.True(t, s.Undo())
	assert.Equal(t, 1, s.LayerCount())
	assert.Equal(t, 0, s.State().SelectedLayer)
}

func TestSession_ClearLayerIsUndoable(t *testing.T) {
	s := newSession(t, 2, 2)
	require.NoError(t, s.ApplyCellWrite(0, 0))
	s.Release()

	require.NoError(t, s.ClearLayer(0))
	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 0))

	require.True(t, s.Undo())
	assert.Equal(t, editor.DefaultColor, cacheColor(t, s, 0, 0, 0))
}

func TestSession_MaxLayers(t *testing.T) {
	s, err := editor.NewSession(editor.Options{Width: 1, Height: 1, MaxLayers: 2})
	require.NoError(t, err)

	_, err = s.AddLayer()
	require.NoError(t, err)
	_, err = s.AddLayer()
	assert.True(t, errors.Is(err, editor.ErrTooManyLayers))
}

func TestSession_RenderCacheIsACopy(t *testing.T) {
	s := newSession(t, 2, 2)
	rc, err := s.RenderCache(0)
	require.NoError(t, err)

	rc[0][0].Color = "#FFFFFF"

	assert.Equal(t, editor.Transparent, cacheColor(t, s, 0, 0, 0))
}
