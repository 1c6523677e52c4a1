package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/editor"
	"pixel-editor/internal/service"
	"pixel-editor/internal/tasks"
	"pixel-editor/internal/worker"
)

type fakeSaver struct {
	calls []editor.ImageRecord
	owner uint
	err   error
}

func (f *fakeSaver) Save(_ context.Context, ownerID uint, rec editor.ImageRecord) (*domain.Image, error) {
	f.calls = append(f.calls, rec)
	f.owner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	img := &domain.Image{OwnerID: ownerID}
	img.SetRecord(rec)
	return img, nil
}

type fakeSweeper struct {
	at     time.Time
	closed int
}

func (f *fakeSweeper) SweepIdle(now time.Time) int {
	f.at = now
	return f.closed
}

func persistTask(t *testing.T) *asynq.Task {
	t.Helper()
	s, err := editor.NewSession(editor.Options{Width: 2, Height: 2})
	require.NoError(t, err)
	rec, err := s.SerializeForSave("icon")
	require.NoError(t, err)
	task, err := tasks.NewImagePersistTask(7, rec)
	require.NoError(t, err)
	return task
}

func TestImagePersistHandler_Saves(t *testing.T) {
	saver := &fakeSaver{}
	h := worker.NewImagePersistHandler(saver)

	err := h.ProcessTask(context.Background(), persistTask(t))

	require.NoError(t, err)
	require.Len(t, saver.calls, 1)
	assert.Equal(t, uint(7), saver.owner)
	assert.Equal(t, "icon", saver.calls[0].Name)
}

func TestImagePersistHandler_InvalidRecordSkipsRetry(t *testing.T) {
	saver := &fakeSaver{err: service.ErrInvalidImage}
	h := worker.NewImagePersistHandler(saver)

	err := h.ProcessTask(context.Background(), persistTask(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestImagePersistHandler_TransientErrorRetries(t *testing.T) {
	saver := &fakeSaver{err: errors.New("db timeout")}
	h := worker.NewImagePersistHandler(saver)

	err := h.ProcessTask(context.Background(), persistTask(t))

	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestImagePersistHandler_BadPayload(t *testing.T) {
	h := worker.NewImagePersistHandler(&fakeSaver{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeImagePersist, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestServeMux_RoutesSweep(t *testing.T) {
	sweeper := &fakeSweeper{closed: 3}
	mux := worker.NewServeMux(&fakeSaver{}, sweeper)

	err := mux.ProcessTask(context.Background(), tasks.NewSessionSweepTask(tasks.SweepQueue("test")))

	require.NoError(t, err)
	assert.False(t, sweeper.at.IsZero(), "清理任务应调用 SweepIdle")
}

func TestQueues_IncludeInstanceSweepQueue(t *testing.T) {
	a := worker.Queues(tasks.SweepQueue("editor-a"))
	b := worker.Queues(tasks.SweepQueue("editor-b"))

	assert.Contains(t, a, "sweep:editor-a")
	assert.NotContains(t, a, "sweep:editor-b", "实例不应处理其他实例的清理任务")
	assert.Contains(t, b, "sweep:editor-b")
	assert.Contains(t, a, "critical", "图像保存队列由所有实例共享")
}
