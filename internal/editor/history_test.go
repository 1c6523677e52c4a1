package editor_test

import (
	"testing"

	"pixel-editor/internal/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoAtStartIsNoop(t *testing.T) {
	h := editor.NewHistory([]*editor.Layer{editor.NewLayer(mustGrid(t, 2, 2))}, 0)

	_, ok := h.Undo()
	assert.False(t, ok)
	_, ok = h.Redo()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Cursor())
	assert.Equal(t, 1, h.Len())
}

func TestHistory_RecordTruncatesRedoBranch(t *testing.T) {
	layers := []*editor.Layer{editor.NewLayer(mustGrid(t, 2, 2))}
	h := editor.NewHistory(layers, 0)

	h.RecordBeforeStroke(layers)
	require.NoError(t, layers[0].Set(0, 0, "#FF0000"))
	h.Commit(layers)
	h.RecordBeforeStroke(layers)
	require.NoError(t, layers[0].Set(1, 1, "#00FF00"))
	h.Commit(layers)
	require.Equal(t, 3, h.Len())

	_, ok := h.Undo()
	require.True(t, ok)
	_, ok = h.Undo()
	require.True(t, ok)
	assert.True(t, h.CanRedo())

	h.RecordBeforeStroke(layers)
	assert.Equal(t, 2, h.Len(), "游标之后的条目应被丢弃")
	assert.Equal(t, 1, h.Cursor())
	assert.False(t, h.CanRedo())
}

func TestHistory_EntriesAreDeepCopies(t *testing.T) {
	layers := []*editor.Layer{editor.NewLayer(mustGrid(t, 2, 2))}
	h := editor.NewHistory(layers, 0)
	h.RecordBeforeStroke(layers)

	// 记录之后修改实时图层不能污染已记录的条目
	require.NoError(t, layers[0].Set(0, 0, "#FF0000"))
	restored, ok := h.Undo()
	require.True(t, ok)
	c, _ := restored[0].Get(0, 0)
	assert.Equal(t, editor.Transparent, c)

	// 修改返回的快照同样不能影响历史
	require.NoError(t, restored[0].Set(1, 1, "#0000FF"))
	h.RecordBeforeStroke(layers)
	again, ok := h.Undo()
	require.True(t, ok)
	c, _ = again[0].Get(1, 1)
	assert.Equal(t, editor.Transparent, c)
}

func TestHistory_Bounded(t *testing.T) {
	layers := []*editor.Layer{editor.NewLayer(mustGrid(t, 1, 1))}
	h := editor.NewHistory(layers, 4)

	for i := 0; i < 10; i++ {
		h.RecordBeforeStroke(layers)
	}

	assert.Equal(t, 4, h.Len())
	assert.Equal(t, 3, h.Cursor())
	undos := 0
	for {
		if _, ok := h.Undo(); !ok {
			break
		}
		undos++
	}
	assert.Equal(t, 3, undos)
}
