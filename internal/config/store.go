package config

import (
	"sync"
	"sync/atomic"
)

// Store 持有当前生效的配置快照
//
// 读取无锁；Update 在副本上修改并校验，成功后原子替换，失败时丢弃副本。
type Store struct {
	current atomic.Pointer[Config]
	mu      sync.Mutex // 串行化写入
	path    string
}

// NewStore 创建配置存储，path 为 Save 写入的文件
func NewStore(cfg *Config, path string) *Store {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	s := &Store{path: path}
	s.current.Store(cfg.Clone())
	return s
}

// Get 返回当前配置的副本
func (s *Store) Get() *Config {
	return s.current.Load().Clone()
}

// Path 返回配置文件路径
func (s *Store) Path() string {
	return s.path
}

// Update 在当前配置的副本上执行 fn，校验通过后替换
func (s *Store) Update(fn func(draft *Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.current.Load().Clone()
	if err := fn(draft); err != nil {
		return err
	}
	if err := draft.Validate(); err != nil {
		return err
	}
	s.current.Store(draft)
	return nil
}

// Save 把当前配置写入文件
func (s *Store) Save() error {
	return SaveConfig(s.Get(), s.path)
}
