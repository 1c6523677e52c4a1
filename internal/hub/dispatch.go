package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/dto"
	"pixel-editor/internal/editor"
	"pixel-editor/internal/service"
	"pixel-editor/internal/tasks"
)

// ImageLoader 读取已保存的图像，由 service.ImageService 实现
type ImageLoader interface {
	Get(ctx context.Context, ownerID uint, name string) (*domain.Image, error)
}

// TaskEnqueuer 把任务放入后台队列，由 asynq.Client 实现
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher 把客户端命令应用到会话上并生成回复。
// 同一个会话的命令必须串行调用 Handle。
type Dispatcher struct {
	images ImageLoader
	tasks  TaskEnqueuer
}

// NewDispatcher 创建 Dispatcher
func NewDispatcher(images ImageLoader, tasks TaskEnqueuer) *Dispatcher {
	if images == nil {
		panic("ImageLoader cannot be nil for Dispatcher")
	}
	if tasks == nil {
		panic("TaskEnqueuer cannot be nil for Dispatcher")
	}
	return &Dispatcher{images: images, tasks: tasks}
}

// Handle 解析并执行一条原始命令，返回需要发送给客户端的回复 (按顺序)。
func (d *Dispatcher) Handle(ctx context.Context, ownerID uint, s *editor.Session, raw []byte) []interface{} {
	var cmd dto.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return []interface{}{dto.NewError("invalid command format")}
	}
	replies, err := d.apply(ctx, ownerID, s, cmd)
	if err != nil {
		logrus.WithFields(logrus.Fields{"owner_id": ownerID, "command": cmd.Type}).
			WithError(err).Debug("Dispatcher: command rejected")
		return []interface{}{dto.NewError(err.Error())}
	}
	return replies
}

func (d *Dispatcher) apply(ctx context.Context, ownerID uint, s *editor.Session, cmd dto.Command) ([]interface{}, error) {
	switch cmd.Type {
	case dto.CmdTouch:
		if err := s.Touch(cmd.X, cmd.Y); err != nil {
			return nil, err
		}
		return selectedCache(s)
	case dto.CmdWrite:
		if err := s.ApplyCellWrite(cmd.X, cmd.Y); err != nil {
			return nil, err
		}
		return selectedCache(s)
	case dto.CmdFill:
		if err := s.ApplyFloodFill(cmd.X, cmd.Y); err != nil {
			return nil, err
		}
		return selectedCache(s)
	case dto.CmdRelease:
		s.Release()
		return stateOnly(s), nil
	case dto.CmdUndo, dto.CmdRedo:
		if cmd.Type == dto.CmdUndo {
			s.Undo()
		} else {
			s.Redo()
		}
		// 撤销和重做会重建所有图层，图层数也可能变化
		return allCachesAndState(s)
	case dto.CmdColor:
		if err := s.SetCurrentColor(cmd.Color); err != nil {
			return nil, err
		}
		return stateOnly(s), nil
	case dto.CmdLayer:
		if cmd.Layer == nil {
			return nil, errors.New("layer is required")
		}
		if err := s.SetSelectedLayerIndex(*cmd.Layer); err != nil {
			return nil, err
		}
		return cacheAndState(s)
	case dto.CmdAddLayer:
		if _, err := s.AddLayer(); err != nil {
			return nil, err
		}
		return stateOnly(s), nil
	case dto.CmdClear:
		layer := s.State().SelectedLayer
		if cmd.Layer != nil {
			layer = *cmd.Layer
		}
		if err := s.ClearLayer(layer); err != nil {
			return nil, err
		}
		return layerCache(s, layer)
	case dto.CmdGrid:
		s.SetGridOverlay(cmd.Enabled)
		return stateOnly(s), nil
	case dto.CmdFillMode:
		s.SetFillMode(cmd.Enabled)
		return stateOnly(s), nil
	case dto.CmdSave:
		return d.save(ctx, ownerID, s, cmd.Name)
	case dto.CmdLoad:
		return d.load(ctx, ownerID, s, cmd.Name)
	case dto.CmdState:
		return cacheAndState(s)
	}
	return nil, fmt.Errorf("unknown command %q", cmd.Type)
}

// save 序列化选中图层并投递到后台队列，数据库写入由 worker 完成
func (d *Dispatcher) save(ctx context.Context, ownerID uint, s *editor.Session, name string) ([]interface{}, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	s.Release()
	rec, err := s.SerializeForSave(name)
	if err != nil {
		return nil, err
	}
	task, err := tasks.NewImagePersistTask(ownerID, rec)
	if err != nil {
		return nil, err
	}
	info, err := d.tasks.EnqueueContext(ctx, task)
	if err != nil {
		logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": name}).
			WithError(err).Error("Dispatcher: failed to enqueue image persist task")
		return nil, errors.New("failed to queue save")
	}
	logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": name, "task_id": info.ID}).
		Info("Dispatcher: image persist task enqueued")
	return []interface{}{dto.SavedDTO{Type: dto.ReplySaved, Name: name}}, nil
}

func (d *Dispatcher) load(ctx context.Context, ownerID uint, s *editor.Session, name string) ([]interface{}, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	img, err := d.images.Get(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			return nil, fmt.Errorf("image %q not found", name)
		}
		return nil, errors.New("failed to load image")
	}
	if err := s.LoadImage(img.Record()); err != nil {
		return nil, err
	}
	return cacheAndState(s)
}

func layerCache(s *editor.Session, layer int) ([]interface{}, error) {
	rc, err := s.RenderCache(layer)
	if err != nil {
		return nil, err
	}
	return []interface{}{dto.CacheDTO{Type: dto.ReplyCache, Layer: layer, Cells: rc}}, nil
}

func selectedCache(s *editor.Session) ([]interface{}, error) {
	return layerCache(s, s.State().SelectedLayer)
}

func stateOnly(s *editor.Session) []interface{} {
	return []interface{}{dto.StateDTO{Type: dto.ReplyState, State: s.State()}}
}

func allCachesAndState(s *editor.Session) ([]interface{}, error) {
	replies := make([]interface{}, 0, s.LayerCount()+1)
	for i := 0; i < s.LayerCount(); i++ {
		cache, err := layerCache(s, i)
		if err != nil {
			return nil, err
		}
		replies = append(replies, cache...)
	}
	return append(replies, stateOnly(s)...), nil
}

func cacheAndState(s *editor.Session) ([]interface{}, error) {
	replies, err := selectedCache(s)
	if err != nil {
		return nil, err
	}
	return append(replies, stateOnly(s)...), nil
}
