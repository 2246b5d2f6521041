package workspace

import (
	"context"
	"io"
	"time"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/domain/catalog"
	"appendix-ai-api/internal/domain/entity"
	apperrors "appendix-ai-api/pkg/errors"
	"appendix-ai-api/pkg/logger"
)

// Extractor 文件文本提取
type Extractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Generator 流式生成
type Generator interface {
	Generate(ctx context.Context, cfg entity.GenerationConfig, onIncrement appendix.IncrementFunc) (string, error)
}

// Service 工作区编排：配置修改、文件提取、生成、预览与导出
type Service struct {
	store     *Store
	extractor Extractor
	generator Generator
	renderer  *appendix.Renderer
	now       func() time.Time
}

// NewService 创建工作区服务
func NewService(store *Store, extractor Extractor, generator Generator, renderer *appendix.Renderer) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		generator: generator,
		renderer:  renderer,
		now:       time.Now,
	}
}

// Store 底层会话存储
func (s *Service) Store() *Store { return s.store }

// Create 新建会话
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	sess, err := s.store.Create()
	if err != nil {
		return Snapshot{}, err
	}
	logger.Debug(ctx, "session created", "session_id", sess.ID())
	return sess.Snapshot(), nil
}

// Snapshot 查询会话状态
func (s *Service) Snapshot(id string) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// UpdateConfig 逐字段更新配置
func (s *Service) UpdateConfig(ctx context.Context, id string, patch entity.ConfigPatch) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := sess.mutate(func(cfg *entity.GenerationConfig) error {
		next, err := cfg.Apply(patch)
		if err != nil {
			return err
		}
		*cfg = next
		return nil
	})
	if err == nil && patch.GradeLevel != nil && !catalog.IsKnownGrade(*patch.GradeLevel) {
		logger.Warn(ctx, "grade level not in catalog, compliance level falls back to TC2", "grade", *patch.GradeLevel)
	}
	return snap, err
}

// ToggleIntegration 切换融合主题
func (s *Service) ToggleIntegration(id, key string) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.mutate(func(cfg *entity.GenerationConfig) error {
		_, err := cfg.ToggleIntegration(key)
		return err
	})
}

// LoadDemo 用示例数据替换源文本
func (s *Service) LoadDemo(id string) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.mutate(func(cfg *entity.GenerationConfig) error {
		cfg.SourceText = catalog.DemoData
		return nil
	})
}

// UploadFile 提取文件文本并替换源文本；失败时源文本保持不变
func (s *Service) UploadFile(ctx context.Context, id, filename string, r io.Reader) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := sess.begin(activityExtract, nil); err != nil {
		return Snapshot{}, err
	}

	text, err := s.extractor.Extract(ctx, filename, r)
	if err == nil {
		sess.setSourceText(text)
	}
	sess.end(activityExtract, err)
	return sess.Snapshot(), err
}

// RejectUpload 记录在解析前就被拒绝的上传（如超出大小），与解析失败一样写入错误横幅
func (s *Service) RejectUpload(id string, cause error) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := sess.begin(activityExtract, nil); err != nil {
		return Snapshot{}, err
	}
	sess.end(activityExtract, cause)
	return sess.Snapshot(), cause
}

// Generate 校验后清空文档并发起生成，增量按顺序写入文档并转发给 onIncrement
// 失败时保留已收到的部分并标记为不完整
func (s *Service) Generate(ctx context.Context, id string, onIncrement appendix.IncrementFunc) (Snapshot, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	cfg, err := sess.begin(activityGenerate, func(cfg *entity.GenerationConfig) error {
		return cfg.ValidateForGeneration()
	})
	if err != nil {
		return sess.Snapshot(), err
	}

	final, err := s.generator.Generate(ctx, cfg, func(cumulative string) {
		sess.applyIncrement(cumulative, s.now())
		if onIncrement != nil {
			onIncrement(cumulative)
		}
	})
	sess.finishDocument(final, err, s.now())
	sess.end(activityGenerate, err)
	return sess.Snapshot(), err
}

// Export 导出 Word；rendered 为客户端回传的已渲染标记，可为空
func (s *Service) Export(id, rendered string) (appendix.Export, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return appendix.Export{}, err
	}
	markup, err := appendix.NormalizeRendered(rendered)
	if err != nil {
		return appendix.Export{}, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid rendered markup")
	}
	doc, cfg := sess.documentAndConfig()
	return appendix.ExportWord(s.renderer.SanitizeRendered(markup), s.renderer.Markup(doc.HTML), cfg.AppendixKind, cfg.GradeLevel), nil
}

// Preview 预览页面
func (s *Service) Preview(id string) ([]byte, error) {
	return s.page(id, s.renderer.RenderPreview)
}

// Print 打印页面
func (s *Service) Print(id string) ([]byte, error) {
	return s.page(id, s.renderer.RenderPrint)
}

func (s *Service) page(id string, render func(entity.TrustedHTML, appendix.PageMeta) ([]byte, error)) ([]byte, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	doc, cfg := sess.documentAndConfig()
	return render(doc.HTML, appendix.PageMeta{
		Title:      cfg.AppendixKind.Label() + " - " + cfg.GradeLevel,
		Incomplete: doc.Incomplete,
	})
}
