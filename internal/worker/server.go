package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/tasks"
)

// WorkerServer 封装了 Asynq Worker Server 的启动和关闭逻辑
type WorkerServer struct {
	server *asynq.Server
	log    *logrus.Entry
	mux    *asynq.ServeMux
}

// Queues 返回 worker 监听的队列及其权重，sweepQueue 是本实例专用的清理队列
func Queues(sweepQueue string) map[string]int {
	return map[string]int{
		"critical": 6,
		"default":  3,
		"low":      1,
		sweepQueue: 1,
	}
}

// NewWorkerServer 创建 WorkerServer 并注册任务处理器
func NewWorkerServer(redisOpt asynq.RedisClientOpt, sweepQueue string, images ImageSaver, sweeper SessionSweeper, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues:      Queues(sweepQueue),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskLogger(ctx, task).Errorf("Task failed: %v", err)
			}),
			Logger: logEntry,
		},
	)

	return &WorkerServer{
		server: server,
		log:    logEntry,
		mux:    NewServeMux(images, sweeper),
	}
}

// NewServeMux 把任务类型映射到处理器
func NewServeMux(images ImageSaver, sweeper SessionSweeper) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeImagePersist, NewImagePersistHandler(images))
	mux.Handle(tasks.TypeSessionSweep, NewSessionSweepHandler(sweeper))
	return mux
}

// Start 运行 Worker Server，应在单独的 goroutine 中调用
func (ws *WorkerServer) Start() {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(ws.mux); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown 优雅地关闭 Worker Server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
