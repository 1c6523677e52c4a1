package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"pixel-editor/internal/editor"
)

// 任务类型
const (
	TypeImagePersist = "image:persist" // 异步保存编辑器导出的图像
	TypeSessionSweep = "session:sweep" // 周期性关闭空闲的编辑会话
)

// ImagePersistPayload 是图像保存任务的数据
type ImagePersistPayload struct {
	OwnerID uint               `json:"owner_id"`
	Record  editor.ImageRecord `json:"record"`
}

// NewImagePersistTask 创建图像保存任务，进入 critical 队列。
func NewImagePersistTask(ownerID uint, rec editor.ImageRecord) (*asynq.Task, error) {
	payload, err := json.Marshal(ImagePersistPayload{OwnerID: ownerID, Record: rec})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image persist payload: %w", err)
	}
	return asynq.NewTask(TypeImagePersist, payload, asynq.MaxRetry(5), asynq.Queue("critical")), nil
}

// SweepQueue 返回服务实例专用的清理队列名。
// 会话只存在于所属实例的内存中，清理任务必须由同一实例的 worker 处理。
func SweepQueue(instanceID string) string {
	return "sweep:" + instanceID
}

// NewSessionSweepTask 创建会话清理任务，没有 payload，进入指定实例的清理队列
func NewSessionSweepTask(queue string) *asynq.Task {
	return asynq.NewTask(TypeSessionSweep, nil, asynq.MaxRetry(0), asynq.Queue(queue))
}
