package hub

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/editor"
)

type nopLoader struct{}

func (nopLoader) Get(context.Context, uint, string) (*domain.Image, error) { return nil, nil }

type nopEnqueuer struct{}

func (nopEnqueuer) EnqueueContext(context.Context, *asynq.Task, ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{}, nil
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(NewDispatcher(nopLoader{}, nopEnqueuer{}), editor.Options{Width: 8, Height: 8}, time.Minute)
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := newTestHub(t)
	s, err := h.NewSession()
	require.NoError(t, err)
	assert.Equal(t, 8, s.Grid().Width(), "会话应使用 Hub 的网格配置")

	c := NewClient(h, nil, 1, s)
	h.registerClient(c)
	assert.Equal(t, 1, h.ClientCount())

	h.unregisterClient(c)
	assert.Equal(t, 0, h.ClientCount())
	_, open := <-c.send
	assert.False(t, open, "注销后 send 通道应被关闭")

	h.unregisterClient(c) // 重复注销不应 panic
}

func TestHub_SweepIdle(t *testing.T) {
	h := newTestHub(t)
	now := time.Now()

	active := NewClient(h, nil, 1, nil)
	idle := NewClient(h, nil, 2, nil)
	idle.touch(now.Add(-2 * time.Minute))
	h.registerClient(active)
	h.registerClient(idle)

	got := h.idleClients(now)
	require.Len(t, got, 1)
	assert.Same(t, idle, got[0])

	assert.Equal(t, 1, h.SweepIdle(now))
}

func TestHub_ClientIDsAreUnique(t *testing.T) {
	h := newTestHub(t)
	a := NewClient(h, nil, 1, nil)
	b := NewClient(h, nil, 1, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestHub_QueueMessageAfterStop(t *testing.T) {
	h := newTestHub(t)
	h.Stop()
	assert.False(t, h.QueueMessage(HubMessage{Type: "register"}))
	h.Stop()
}

func TestClient_LeaveUnregistersWhenQueueIsFull(t *testing.T) {
	h := newTestHub(t)
	c := NewClient(h, nil, 1, nil)
	h.registerClient(c)
	for h.QueueMessage(HubMessage{Type: "noop"}) {
	}

	c.leave()

	assert.Equal(t, 0, h.ClientCount())
	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, h.SweepIdle(time.Now().Add(time.Hour)))
}

func TestClient_LeaveAfterStop(t *testing.T) {
	h := newTestHub(t)
	c := NewClient(h, nil, 1, nil)
	h.registerClient(c)
	h.Stop()

	c.leave()

	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_ClosedClientIsNotRegistered(t *testing.T) {
	h := newTestHub(t)
	c := NewClient(h, nil, 1, nil)
	c.CloseConn()

	h.registerClient(c)

	assert.Equal(t, 0, h.ClientCount())
	_, open := <-c.send
	assert.False(t, open)
}
