package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/editor"
)

// palette 对应数字键 1-9
var palette = [...]editor.Color{
	"#000000", "#FFFFFF", "#FF0000", "#00FF00", "#0000FF",
	"#FFFF00", "#FF00FF", "#00FFFF", "#808080",
}

const (
	originX   = 1
	originY   = 1
	cellWidth = 2
)

// term 是终端前端的状态：一个编辑会话加上光标位置
type term struct {
	session *editor.Session
	dir     string
	name    string
	cx, cy  int
	status  string
}

func newTerm(s *editor.Session, dir, name string) *term {
	return &term{session: s, dir: dir, name: name, status: "arrows move, space paints, q quits"}
}

func (t *term) path() string { return filepath.Join(t.dir, t.name+".json") }

// handleKey 处理一次按键，返回 true 表示退出。除空格外的按键都会先结束当前笔画。
func (t *term) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyRune && ev.Rune() == ' ' {
		if err := t.session.Touch(t.cx, t.cy); err != nil {
			t.status = err.Error()
		}
		return false
	}
	t.session.Release()

	g := t.session.Grid()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		t.cx = max(t.cx-1, 0)
	case tcell.KeyRight:
		t.cx = min(t.cx+1, g.Width()-1)
	case tcell.KeyUp:
		t.cy = max(t.cy-1, 0)
	case tcell.KeyDown:
		t.cy = min(t.cy+1, g.Height()-1)
	case tcell.KeyRune:
		return t.handleRune(ev.Rune())
	}
	return false
}

func (t *term) handleRune(r rune) bool {
	state := t.session.State()
	switch {
	case r == 'q':
		return true
	case r >= '1' && r <= '9':
		c := palette[r-'1']
		if err := t.session.SetCurrentColor(c); err == nil {
			t.status = "color " + string(c)
		}
	case r == 'f':
		t.session.SetFillMode(!state.Fill)
	case r == 'g':
		t.session.SetGridOverlay(!state.Grid)
	case r == 'u':
		if !t.session.Undo() {
			t.status = "nothing to undo"
		}
	case r == 'r':
		if !t.session.Redo() {
			t.status = "nothing to redo"
		}
	case r == '[' || r == ']':
		next := state.SelectedLayer + 1
		if r == '[' {
			next = state.SelectedLayer - 1
		}
		if err := t.session.SetSelectedLayerIndex(next); err != nil {
			t.status = "no such layer"
		}
	case r == 'n':
		i, err := t.session.AddLayer()
		if err != nil {
			t.status = err.Error()
			break
		}
		_ = t.session.SetSelectedLayerIndex(i)
	case r == 'c':
		if err := t.session.ClearLayer(state.SelectedLayer); err != nil {
			t.status = err.Error()
		}
	case r == 's':
		t.status = t.report("saved "+t.path(), t.save())
	case r == 'l':
		t.status = t.report("loaded "+t.path(), t.load())
	}
	return false
}

func (t *term) report(ok string, err error) string {
	if err != nil {
		logrus.WithError(err).WithField("image_name", t.name).Warn("pixelterm: file operation failed")
		return err.Error()
	}
	return ok
}

func (t *term) save() error {
	rec, err := t.session.SerializeForSave(t.name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", t.name, err)
	}
	return os.WriteFile(t.path(), data, 0o644)
}

func (t *term) load() error {
	data, err := os.ReadFile(t.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s does not exist", t.path())
		}
		return err
	}
	var rec editor.ImageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to decode %s: %w", t.path(), err)
	}
	return t.session.LoadImage(rec)
}

// draw 渲染选中图层：每个单元格占两列，透明单元格在网格模式下显示为点
func (t *term) draw(screen tcell.Screen) {
	screen.Clear()
	state := t.session.State()
	rc, err := t.session.RenderCache(state.SelectedLayer)
	if err != nil {
		return
	}
	for x := range rc {
		for y, cell := range rc[x] {
			style, glyph := cellStyle(cell.Color, state.Grid)
			if x == t.cx && y == t.cy {
				style = style.Reverse(true)
				if glyph == ' ' {
					glyph = '+'
				}
			}
			sx := originX + x*cellWidth
			screen.SetContent(sx, originY+y, glyph, nil, style)
			screen.SetContent(sx+1, originY+y, ' ', nil, style)
		}
	}

	mode := "pen"
	if state.Fill {
		mode = "fill"
	}
	line := fmt.Sprintf("%s  layer %d/%d  %s  [%s]  %s",
		state.CurrentColor, state.SelectedLayer+1, state.Layers, mode, t.name, t.status)
	drawText(screen, originX, originY+rc.Height()+1, line)
	screen.Show()
}

func cellStyle(c editor.Color, grid bool) (tcell.Style, rune) {
	v, err := editor.Decode(c)
	if err != nil || v.A == 0 {
		if grid {
			return tcell.StyleDefault.Foreground(tcell.ColorGray), '·'
		}
		return tcell.StyleDefault, ' '
	}
	return tcell.StyleDefault.Background(tcell.NewRGBColor(int32(v.R), int32(v.G), int32(v.B))), ' '
}

func drawText(screen tcell.Screen, x, y int, s string) {
	for i, r := range []rune(s) {
		screen.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}
