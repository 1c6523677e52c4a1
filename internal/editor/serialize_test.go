package editor_test

import (
	"encoding/json"
	"errors"
	"testing"

	"pixel-editor/internal/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireCell struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	R     *int   `json:"r"`
	G     *int   `json:"g"`
	B     *int   `json:"b"`
	A     *int   `json:"a"`
}

func TestSerialize_RecordShape(t *testing.T) {
	s := newSession(t, 3, 2)
	require.NoError(t, s.SetCurrentColor("#FF8000"))
	require.NoError(t, s.ApplyCellWrite(2, 1))
	s.Release()

	rec, err := s.SerializeForSave("sunset")
	require.NoError(t, err)
	assert.Equal(t, "sunset", rec.Name)
	assert.Equal(t, 3, rec.Width)
	assert.Equal(t, 2, rec.Height)

	var cells [][]wireCell
	require.NoError(t, json.Unmarshal([]byte(rec.Data), &cells))
	require.Len(t, cells, 3, "data 应按宽度优先组织")
	require.Len(t, cells[0], 2)

	painted := cells[2][1]
	assert.Equal(t, 2, painted.X)
	assert.Equal(t, 1, painted.Y)
	assert.Equal(t, "#FF8000", painted.Color)
	require.NotNil(t, painted.R)
	assert.Equal(t, []int{255, 128, 0, 255}, []int{*painted.R, *painted.G, *painted.B, *painted.A})

	empty := cells[0][0]
	assert.Equal(t, "transparent", empty.Color)
	require.NotNil(t, empty.A, "透明单元格也要带显式通道")
	assert.Equal(t, []int{0, 0, 0, 0}, []int{*empty.R, *empty.G, *empty.B, *empty.A})
}

func TestSerialize_DoesNotMutateSource(t *testing.T) {
	l := editor.NewLayer(mustGrid(t, 2, 2))
	rc := editor.NewRenderCache(l)

	_, err := editor.Serialize(rc, "x")
	require.NoError(t, err)

	assert.Nil(t, rc[0][0].R)
	assert.Equal(t, editor.NewRenderCache(l), rc)
}

func TestSerialize_InvalidColor(t *testing.T) {
	rc := editor.NewRenderCache(editor.NewLayer(mustGrid(t, 1, 1)))
	rc[0][0].Color = "#nope!!"

	_, err := editor.Serialize(rc, "bad")
	assert.True(t, errors.Is(err, editor.ErrInvalidColorFormat))
}

func TestParseImageRecord_RoundTrip(t *testing.T) {
	l := editor.NewLayer(mustGrid(t, 4, 4))
	editor.FloodFill(l, 0, 0, "#336699")
	require.NoError(t, l.Set(3, 3, editor.Transparent))

	rec, err := editor.Serialize(editor.NewRenderCache(l), "tile")
	require.NoError(t, err)

	rc, err := editor.ParseImageRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, editor.NewRenderCache(l), rc)

	back, err := editor.LayerFromRecord(rec)
	require.NoError(t, err)
	assert.True(t, back.Equal(l))
}

func TestParseImageRecord_Rejects(t *testing.T) {
	good, err := editor.Serialize(editor.NewRenderCache(editor.NewLayer(mustGrid(t, 2, 2))), "ok")
	require.NoError(t, err)

	wrongSize := good
	wrongSize.Width = 3
	_, err = editor.ParseImageRecord(wrongSize)
	assert.True(t, errors.Is(err, editor.ErrDimensionMismatch))

	zero := good
	zero.Height = 0
	_, err = editor.ParseImageRecord(zero)
	assert.True(t, errors.Is(err, editor.ErrInvalidGrid))

	badColor := good
	badColor.Data = `[[{"x":0,"y":0,"color":"red"}]]`
	badColor.Width, badColor.Height = 1, 1
	_, err = editor.ParseImageRecord(badColor)
	assert.True(t, errors.Is(err, editor.ErrInvalidColorFormat))

	swapped := good
	swapped.Data = `[[{"x":0,"y":1,"color":"transparent"}]]`
	swapped.Width, swapped.Height = 1, 1
	_, err = editor.ParseImageRecord(swapped)
	assert.True(t, errors.Is(err, editor.ErrCoordinateOutOfRange))

	garbage := good
	garbage.Data = "{"
	_, err = editor.ParseImageRecord(garbage)
	assert.Error(t, err)
}

func TestSession_LoadImage(t *testing.T) {
	src := newSession(t, 2, 2)
	require.NoError(t, src.ApplyCellWrite(1, 0))
	src.Release()
	rec, err := src.SerializeForSave("dot")
	require.NoError(t, err)

	dst := newSession(t, 2, 2)
	require.NoError(t, dst.LoadImage(rec))
	assert.Equal(t, editor.DefaultColor, cacheColor(t, dst, 0, 1, 0))
	require.True(t, dst.Undo())
	assert.Equal(t, editor.Transparent, cacheColor(t, dst, 0, 1, 0))

	other := newSession(t, 3, 3)
	assert.True(t, errors.Is(other.LoadImage(rec), editor.ErrDimensionMismatch))
}
