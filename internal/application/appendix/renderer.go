package appendix

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"appendix-ai-api/internal/domain/entity"
)

//go:embed templates/page.html.tmpl
var pageFS embed.FS

// DefaultMathJaxURL 公式排版脚本地址
const DefaultMathJaxURL = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"

// RendererOptions 渲染参数
type RendererOptions struct {
	Sanitize   bool
	MathJaxURL string
}

// Renderer 把生成结果渲染为仿纸张的 HTML 页面
type Renderer struct {
	tpl        *template.Template
	policy     *bluemonday.Policy
	mathJaxURL string
}

// NewRenderer 创建渲染器；Sanitize=false 时生成的标记按原样注入
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	tpl, err := template.ParseFS(pageFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	if opts.MathJaxURL == "" {
		opts.MathJaxURL = DefaultMathJaxURL
	}

	r := &Renderer{tpl: tpl, mathJaxURL: opts.MathJaxURL}
	if opts.Sanitize {
		r.policy = documentPolicy()
	}
	return r, nil
}

// documentPolicy 允许表格类排版，去掉脚本和事件属性
func documentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("border", "cellpadding", "cellspacing", "width").OnElements("table")
	p.AllowAttrs("colspan", "rowspan", "align", "valign", "width").OnElements("td", "th")
	p.AllowElements("u", "sub", "sup")
	return p
}

// PageMeta 页面附加信息
type PageMeta struct {
	Title      string
	Incomplete bool
}

type pageData struct {
	Title      string
	MathJaxURL string
	Body       template.HTML
	Incomplete bool
	AutoPrint  bool
}

// RenderPreview 预览页面
func (r *Renderer) RenderPreview(doc entity.TrustedHTML, meta PageMeta) ([]byte, error) {
	return r.render(doc, meta, false)
}

// RenderPrint 打印页面，加载完成后自动调用打印
func (r *Renderer) RenderPrint(doc entity.TrustedHTML, meta PageMeta) ([]byte, error) {
	return r.render(doc, meta, true)
}

// Markup 返回注入页面的标记（启用净化时为净化后的结果）
func (r *Renderer) Markup(doc entity.TrustedHTML) entity.TrustedHTML {
	if r.policy == nil {
		return doc
	}
	return entity.TrustedHTML(r.policy.Sanitize(string(doc)))
}

// SanitizeRendered 对客户端回传的标记应用同一净化策略
func (r *Renderer) SanitizeRendered(m entity.RenderedMarkup) entity.RenderedMarkup {
	if r.policy == nil {
		return m
	}
	return entity.RenderedMarkup(r.policy.Sanitize(string(m)))
}

func (r *Renderer) render(doc entity.TrustedHTML, meta PageMeta, autoPrint bool) ([]byte, error) {
	title := meta.Title
	if title == "" {
		title = "Phụ lục"
	}
	data := pageData{
		Title:      title,
		MathJaxURL: r.mathJaxURL,
		// 可信边界：只有生成服务产出的 TrustedHTML 会走到这里
		Body:       template.HTML(r.Markup(doc)),
		Incomplete: meta.Incomplete,
		AutoPrint:  autoPrint,
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
