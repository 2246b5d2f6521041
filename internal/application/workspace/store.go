// Package workspace 保存每个浏览器标签页的工作区状态，并编排提取、生成、导出
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"appendix-ai-api/internal/domain/entity"
	apperrors "appendix-ai-api/pkg/errors"
	"appendix-ai-api/pkg/logger"
	"appendix-ai-api/pkg/metrics"
)

// StoreOptions 会话存储参数
type StoreOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// Store 内存会话表，按空闲时间淘汰，不做持久化
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     StoreOptions
	now      func() time.Time
}

// NewStore 创建会话存储
func NewStore(opts StoreOptions) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		now:      time.Now,
	}
}

// Create 以默认配置创建会话
// 达到上限时先淘汰过期会话，仍然满则拒绝
func (s *Store) Create() (*Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.sweepLocked(now)
		if len(s.sessions) >= s.opts.MaxSessions {
			return nil, apperrors.New(apperrors.CodeServiceUnavailable, "too many active sessions")
		}
	}

	sess := newSession(uuid.NewString(), now)
	s.sessions[sess.id] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return sess, nil
}

// Get 获取会话并刷新活跃时间
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.New(apperrors.CodeSessionNotFound, "session not found").WithDetail(id)
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete 删除会话
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
}

// Len 当前会话数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep 淘汰空闲超过 TTL 的会话，进行中的会话不淘汰
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	if s.opts.TTL <= 0 {
		return 0
	}
	removed := 0
	for id, sess := range s.sessions {
		if sess.expired(now, s.opts.TTL) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return removed
}

// Run 周期性淘汰过期会话，直到 ctx 结束
func (s *Store) Run(ctx context.Context) {
	interval := s.opts.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug(ctx, "expired sessions swept", "removed", n, "remaining", s.Len())
			}
		}
	}
}

// Snapshot 会话状态的只读副本
type Snapshot struct {
	ID       string                   `json:"id"`
	Config   entity.GenerationConfig  `json:"config"`
	Document entity.GeneratedDocument `json:"document"`
	UI       entity.UIState           `json:"ui"`
}
