// Package dto 定义 WebSocket 上收发的消息结构。
package dto

import "pixel-editor/internal/editor"

// 客户端命令类型
const (
	CmdTouch    = "touch"
	CmdWrite    = "write"
	CmdFill     = "fill"
	CmdRelease  = "release"
	CmdUndo     = "undo"
	CmdRedo     = "redo"
	CmdColor    = "color"
	CmdLayer    = "layer"
	CmdAddLayer = "add_layer"
	CmdClear    = "clear"
	CmdGrid     = "grid"
	CmdFillMode = "fill_mode"
	CmdSave     = "save"
	CmdLoad     = "load"
	CmdState    = "state"
)

// 服务端回复类型
const (
	ReplyCache = "cache"
	ReplyState = "state"
	ReplySaved = "saved"
	ReplyError = "error"
)

// Command 是客户端发来的一条编辑命令。坐标已经是网格坐标。
type Command struct {
	Type    string       `json:"type"`
	X       int          `json:"x"`
	Y       int          `json:"y"`
	Color   editor.Color `json:"color,omitempty"`
	Layer   *int         `json:"layer,omitempty"`
	Enabled bool         `json:"enabled,omitempty"`
	Name    string       `json:"name,omitempty"`
}

// CacheDTO 携带一个图层的完整渲染缓存
type CacheDTO struct {
	Type  string             `json:"type"`
	Layer int                `json:"layer"`
	Cells editor.RenderCache `json:"cells"`
}

// StateDTO 携带工具状态
type StateDTO struct {
	Type  string           `json:"type"`
	State editor.ToolState `json:"state"`
}

// SavedDTO 表示保存请求已被接受
type SavedDTO struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ErrorDTO 表示发送给客户端的错误消息
type ErrorDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorDTO {
	return ErrorDTO{Type: ReplyError, Message: message}
}
