package translator

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type task struct {
	cancel    context.CancelFunc
	cancelled bool
}

// TaskManager 管理可取消的翻译任务，每个任务对应一个可取消的 context
type TaskManager struct {
	mu    sync.Mutex
	tasks map[string]*task
}

// NewTaskManager 创建任务管理器
func NewTaskManager() *TaskManager {
	return &TaskManager{tasks: make(map[string]*task)}
}

// Create 注册新任务，返回任务 ID 和派生自 parent 的 context
func (m *TaskManager) Create(parent context.Context) (string, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()

	m.mu.Lock()
	m.tasks[id] = &task{cancel: cancel}
	m.mu.Unlock()
	return id, ctx
}

// Complete 结束任务并释放资源
func (m *TaskManager) Complete(id string) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	delete(m.tasks, id)
	m.mu.Unlock()
	if ok {
		t.cancel()
	}
}

// Cancel 取消任务，任务不存在时返回 false
func (m *TaskManager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return false
	}
	t.cancelled = true
	t.cancel()
	return true
}

// CancelAll 取消全部任务，返回取消的数量
func (m *TaskManager) CancelAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			t.cancelled = true
			t.cancel()
			count++
		}
	}
	return count
}

// IsCancelled 任务是否已被取消
func (m *TaskManager) IsCancelled(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return ok && t.cancelled
}

// Active 返回未结束的任务 ID（已排序）
func (m *TaskManager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
