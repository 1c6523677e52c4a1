package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/editor"
	"pixel-editor/internal/service"
	"pixel-editor/internal/tasks"
)

// ImageSaver 保存图像记录，由 service.ImageService 实现
type ImageSaver interface {
	Save(ctx context.Context, ownerID uint, rec editor.ImageRecord) (*domain.Image, error)
}

// SessionSweeper 关闭空闲会话，由 hub.Hub 实现
type SessionSweeper interface {
	SweepIdle(now time.Time) int
}

// taskLogger 返回带有任务信息的日志条目
func taskLogger(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     retryCount,
		"max_retry": maxRetry,
	})
}

// ImagePersistHandler 处理图像保存任务
type ImagePersistHandler struct {
	images ImageSaver
}

// NewImagePersistHandler 创建 Handler 实例
func NewImagePersistHandler(images ImageSaver) *ImagePersistHandler {
	if images == nil {
		panic("ImageSaver cannot be nil for ImagePersistHandler")
	}
	return &ImagePersistHandler{images: images}
}

// ProcessTask 实现 asynq.Handler 接口。记录本身无效时不再重试。
func (h *ImagePersistHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)

	var payload tasks.ImagePersistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{"owner_id": payload.OwnerID, "image_name": payload.Record.Name})

	if _, err := h.images.Save(ctx, payload.OwnerID, payload.Record); err != nil {
		if errors.Is(err, service.ErrInvalidImage) || errors.Is(err, service.ErrInvalidInput) {
			logCtx.WithError(err).Warn("Dropping invalid image persist task")
			return fmt.Errorf("invalid image record: %v: %w", err, asynq.SkipRetry)
		}
		logCtx.WithError(err).Error("Failed to persist image")
		return fmt.Errorf("failed to persist image %q: %w", payload.Record.Name, err)
	}

	logCtx.Info("Image persist task processed successfully")
	return nil
}

// SessionSweepHandler 处理周期性的空闲会话清理任务
type SessionSweepHandler struct {
	sweeper SessionSweeper
	now     func() time.Time
}

// NewSessionSweepHandler 创建 Handler 实例
func NewSessionSweepHandler(sweeper SessionSweeper) *SessionSweepHandler {
	if sweeper == nil {
		panic("SessionSweeper cannot be nil for SessionSweepHandler")
	}
	return &SessionSweepHandler{sweeper: sweeper, now: time.Now}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *SessionSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	closed := h.sweeper.SweepIdle(h.now())
	taskLogger(ctx, t).WithField("closed", closed).Info("Idle session sweep completed")
	return nil
}
