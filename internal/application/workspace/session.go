package workspace

import (
	"sync"
	"time"

	"appendix-ai-api/internal/domain/entity"
	apperrors "appendix-ai-api/pkg/errors"
)

// activity 正在进行的长操作
type activity int

const (
	activityGenerate activity = iota
	activityExtract
)

// Session 一个工作区：配置、生成结果与运行状态
type Session struct {
	id string

	mu       sync.Mutex
	config   entity.GenerationConfig
	document entity.GeneratedDocument
	ui       entity.UIState
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:       id,
		config:   entity.DefaultGenerationConfig(),
		lastSeen: now,
	}
}

// ID 会话 ID
func (s *Session) ID() string { return s.id }

// Snapshot 当前状态副本
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	ui := s.ui
	if ui.LastError != nil {
		msg := *ui.LastError
		ui.LastError = &msg
	}
	return Snapshot{
		ID:       s.id,
		Config:   s.config.Clone(),
		Document: s.document,
		UI:       ui,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ui.Busy() && now.Sub(s.lastSeen) > ttl
}

// mutate 在锁内修改配置；失败时记录错误提示
func (s *Session) mutate(fn func(cfg *entity.GenerationConfig) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ui.LastError = nil
	next := s.config.Clone()
	if err := fn(&next); err != nil {
		s.setErrorLocked(err)
		return s.snapshotLocked(), err
	}
	s.config = next
	return s.snapshotLocked(), nil
}

// begin 进入长操作；已有操作在进行时拒绝
// precheck 失败时只记录错误提示，不进入操作
func (s *Session) begin(a activity, precheck func(cfg *entity.GenerationConfig) error) (entity.GenerationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ui.Busy() {
		return entity.GenerationConfig{}, apperrors.New(apperrors.CodeSessionBusy, apperrors.MsgSessionBusy)
	}
	s.ui.LastError = nil
	if precheck != nil {
		if err := precheck(&s.config); err != nil {
			s.setErrorLocked(err)
			return entity.GenerationConfig{}, err
		}
	}
	switch a {
	case activityGenerate:
		s.ui.IsGenerating = true
		s.document = entity.GeneratedDocument{}
	case activityExtract:
		s.ui.IsExtractingFile = true
	}
	return s.config.Clone(), nil
}

func (s *Session) end(a activity, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a {
	case activityGenerate:
		s.ui.IsGenerating = false
	case activityExtract:
		s.ui.IsExtractingFile = false
	}
	if err != nil {
		s.setErrorLocked(err)
	}
}

func (s *Session) setErrorLocked(err error) {
	msg := apperrors.AsAppError(err).Message
	s.ui.LastError = &msg
}

// applyIncrement 用累计文本替换文档内容
func (s *Session) applyIncrement(cumulative string, now time.Time) {
	s.mu.Lock()
	s.document = entity.GeneratedDocument{HTML: entity.TrustedHTML(cumulative), UpdatedAt: now}
	s.mu.Unlock()
}

// finishDocument 生成结束：成功时写入最终文本，失败时保留已有部分并标记不完整
func (s *Session) finishDocument(final string, err error, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if !s.document.Empty() {
			s.document.Incomplete = true
			s.document.UpdatedAt = now
		}
		return
	}
	s.document = entity.GeneratedDocument{HTML: entity.TrustedHTML(final), UpdatedAt: now}
}

func (s *Session) setSourceText(text string) {
	s.mu.Lock()
	s.config.SourceText = text
	s.mu.Unlock()
}

func (s *Session) documentAndConfig() (entity.GeneratedDocument, entity.GenerationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document, s.config.Clone()
}
