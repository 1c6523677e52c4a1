package editor

import "github.com/sirupsen/logrus"

// DefaultHistoryLimit 是历史记录默认保留的条目数。
const DefaultHistoryLimit = 64

// History 是基于整组图层快照的撤销/重做管理器。
//
// 不变式: 0 <= cursor < len(entries)。撤销或重做之后 entries[cursor] 与当前图层一致，
// 只有在未提交的笔画进行中两者才会不同。
type History struct {
	entries [][]*Layer
	cursor  int
	limit   int
}

// NewHistory 以初始图层状态作为第一条记录创建历史管理器。limit <= 1 时使用默认值。
func NewHistory(initial []*Layer, limit int) *History {
	if limit <= 1 {
		limit = DefaultHistoryLimit
	}
	return &History{
		entries: [][]*Layer{cloneLayers(initial)},
		limit:   limit,
	}
}

// RecordBeforeStroke 在一次连续交互开始、任何修改发生之前调用。
// 丢弃游标之后的重做分支，追加修改前图层的深拷贝，并把游标移到末尾。
func (h *History) RecordBeforeStroke(layers []*Layer) {
	h.entries = append(h.entries[:h.cursor+1], cloneLayers(layers))
	if len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append(h.entries[:0:0], h.entries[drop:]...)
	}
	h.cursor = len(h.entries) - 1
	logger().WithFields(logrus.Fields{"cursor": h.cursor, "entries": len(h.entries)}).Debug("History: stroke recorded")
}

// Commit 用笔画结束后的状态覆盖当前条目。
func (h *History) Commit(layers []*Layer) {
	h.entries[h.cursor] = cloneLayers(layers)
}

// Undo 后退一步并返回该条目的深拷贝。游标为 0 时不做任何事，返回 false。
func (h *History) Undo() ([]*Layer, bool) {
	if h.cursor == 0 {
		return nil, false
	}
	h.cursor--
	logger().WithField("cursor", h.cursor).Debug("History: undo")
	return cloneLayers(h.entries[h.cursor]), true
}

// Redo 前进一步并返回该条目的深拷贝。已在最后一条时返回 false。
func (h *History) Redo() ([]*Layer, bool) {
	if h.cursor >= len(h.entries)-1 {
		return nil, false
	}
	h.cursor++
	logger().WithField("cursor", h.cursor).Debug("History: redo")
	return cloneLayers(h.entries[h.cursor]), true
}

// CanUndo 报告是否还能撤销。
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo 报告是否还能重做。
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Cursor 返回当前游标位置。
func (h *History) Cursor() int { return h.cursor }

// Len 返回历史条目数。
func (h *History) Len() int { return len(h.entries) }
