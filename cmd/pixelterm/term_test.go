package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-editor/internal/editor"
)

func newTestTerm(t *testing.T) *term {
	t.Helper()
	s, err := editor.NewSession(editor.Options{Width: 4, Height: 3})
	require.NoError(t, err)
	return newTerm(s, t.TempDir(), "sprite")
}

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

func runeKey(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func colorAt(t *testing.T, tm *term, x, y int) editor.Color {
	t.Helper()
	rc, err := tm.session.RenderCache(tm.session.State().SelectedLayer)
	require.NoError(t, err)
	return rc[x][y].Color
}

func TestTerm_CursorStaysInsideGrid(t *testing.T) {
	tm := newTestTerm(t)
	tm.handleKey(key(tcell.KeyLeft))
	tm.handleKey(key(tcell.KeyUp))
	assert.Equal(t, 0, tm.cx)
	assert.Equal(t, 0, tm.cy)

	for i := 0; i < 10; i++ {
		tm.handleKey(key(tcell.KeyRight))
		tm.handleKey(key(tcell.KeyDown))
	}
	assert.Equal(t, 3, tm.cx)
	assert.Equal(t, 2, tm.cy)
}

func TestTerm_PaintAndUndo(t *testing.T) {
	tm := newTestTerm(t)
	tm.handleKey(runeKey('3'))
	tm.handleKey(runeKey(' '))
	assert.True(t, tm.session.State().Pressed)
	assert.Equal(t, editor.Color("#FF0000"), colorAt(t, tm, 0, 0))

	tm.handleKey(runeKey('u'))
	assert.False(t, tm.session.State().Pressed)
	assert.Equal(t, editor.Transparent, colorAt(t, tm, 0, 0))

	tm.handleKey(runeKey('r'))
	assert.Equal(t, editor.Color("#FF0000"), colorAt(t, tm, 0, 0))
}

func TestTerm_FillMode(t *testing.T) {
	tm := newTestTerm(t)
	tm.handleKey(runeKey('f'))
	assert.True(t, tm.session.State().Fill)
	tm.handleKey(runeKey('5'))
	tm.handleKey(runeKey(' '))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			assert.Equal(t, editor.Color("#0000FF"), colorAt(t, tm, x, y))
		}
	}
}

func TestTerm_Layers(t *testing.T) {
	tm := newTestTerm(t)
	tm.handleKey(runeKey('n'))
	st := tm.session.State()
	assert.Equal(t, 2, st.Layers)
	assert.Equal(t, 1, st.SelectedLayer)

	tm.handleKey(runeKey(']'))
	assert.Equal(t, "no such layer", tm.status)
	tm.handleKey(runeKey('['))
	assert.Equal(t, 0, tm.session.State().SelectedLayer)
}

func TestTerm_SaveAndLoad(t *testing.T) {
	tm := newTestTerm(t)
	tm.handleKey(runeKey(' '))
	tm.handleKey(runeKey('s'))
	_, err := os.Stat(filepath.Join(tm.dir, "sprite.json"))
	require.NoError(t, err)

	tm.handleKey(runeKey('c'))
	assert.Equal(t, editor.Transparent, colorAt(t, tm, 0, 0))

	tm.handleKey(runeKey('l'))
	assert.Equal(t, editor.DefaultColor, colorAt(t, tm, 0, 0))
}

func TestTerm_LoadMissingFile(t *testing.T) {
	tm := newTestTerm(t)
	tm.handleKey(runeKey('l'))
	assert.Contains(t, tm.status, "does not exist")
}

func TestTerm_Quit(t *testing.T) {
	tm := newTestTerm(t)
	assert.True(t, tm.handleKey(runeKey('q')))
	assert.True(t, tm.handleKey(key(tcell.KeyEscape)))
	assert.False(t, tm.handleKey(runeKey('g')))
}

func TestTerm_Draw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(40, 10)

	tm := newTestTerm(t)
	tm.handleKey(runeKey('3'))
	tm.handleKey(key(tcell.KeyRight))
	tm.handleKey(runeKey(' '))
	tm.handleKey(runeKey('g'))
	tm.draw(screen)

	// 绘制过的单元格使用真彩色背景
	_, _, style, _ := screen.GetContent(originX+cellWidth, originY)
	_, bg, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), bg)

	// 网格模式下透明单元格显示为点
	r, _, _, _ := screen.GetContent(originX+2*cellWidth, originY+1)
	assert.Equal(t, '·', r)
}
