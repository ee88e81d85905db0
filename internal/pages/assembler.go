package pages

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/markup"
	"github.com/goliatone/go-site/internal/store"
	widgetsvc "github.com/goliatone/go-site/internal/widgets"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/widgets"
)

// ErrNoItem is returned when Assemble is called without an item.
var ErrNoItem = errors.New("pages: no content item")

// Mode is the path a body was assembled through.
type Mode string

const (
	ModeMarkup  Mode = "markup"
	ModeBuilder Mode = "builder"
	ModeArea    Mode = "area"
)

// ColumnOutput is one rendered builder column.
type ColumnOutput struct {
	Span    int
	Outputs []widgets.Output
}

// SectionOutput is one rendered builder section.
type SectionOutput struct {
	ID      string
	Columns []ColumnOutput
}

// Assembly is the composed body of an item.
type Assembly struct {
	Item      *content.Item
	Mode      Mode
	ShowTitle bool
	// Body is set for ModeMarkup.
	Body template.HTML
	// Layout and Sections are set for ModeBuilder. Layout is nil when the
	// page has no layout document yet.
	Layout   *widgets.Layout
	Sections []SectionOutput
	// Area and Outputs are set for ModeArea.
	Area    widgetsvc.AreaResult
	Outputs []widgets.Output
}

// AssemblerOption customises an Assembler.
type AssemblerOption func(*Assembler)

// WithAssemblerLogger sets the assembler logger.
func WithAssemblerLogger(logger interfaces.Logger) AssemblerOption {
	return func(a *Assembler) { a.logger = logger }
}

// WithAssemblerDiagnostics sets the logger for permission failures.
func WithAssemblerDiagnostics(logger interfaces.Logger) AssemblerOption {
	return func(a *Assembler) { a.diagnostics = logger }
}

// Assembler decides how an item's body is produced and produces it.
type Assembler struct {
	reader   store.Reader
	composer *widgetsvc.Composer
	renderer *widgetsvc.Renderer
	markup   *markup.Renderer
	logger   interfaces.Logger

	diagnostics interfaces.Logger
}

// NewAssembler wires an assembler. A nil markup renderer uses the defaults.
func NewAssembler(reader store.Reader, composer *widgetsvc.Composer, renderer *widgetsvc.Renderer, md *markup.Renderer, opts ...AssemblerOption) *Assembler {
	a := &Assembler{reader: reader, composer: composer, renderer: renderer, markup: md}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.markup == nil {
		a.markup = markup.New(markup.Options{})
	}
	if a.renderer == nil {
		a.renderer = widgetsvc.NewRenderer(nil)
	}
	a.logger = logging.Ensure(a.logger)
	a.diagnostics = logging.Ensure(a.diagnostics)
	return a
}

// ShowTitle applies the title visibility rules. For pages the static
// homepage and the site wide flag hide titles, otherwise the item decides.
// Posts only honour their own flag.
func ShowTitle(item *content.Item, s settings.SiteSettings) bool {
	if item == nil {
		return false
	}
	if !item.IsPage() {
		return item.TitleVisible()
	}
	if s.IsHomepage(item.ID) {
		return false
	}
	if s.HideAllPageTitles {
		return false
	}
	return item.TitleVisible()
}

// LayoutQuery selects the builder layout of a page.
func LayoutQuery(pageID string) store.Query {
	return store.Collection(widgets.CollectionLayouts).Eq("pageId", pageID).Take(1)
}

// PageContentRequest is the area consulted for a non builder page.
func PageContentRequest(pageID string) widgetsvc.AreaRequest {
	return widgetsvc.AreaRequest{Name: widgets.PageContentArea, PageID: pageID, PageSpecific: true}
}

// Assemble composes item. Widget failures are contained in their outputs;
// only a markup failure is returned.
func (a *Assembler) Assemble(ctx context.Context, item *content.Item, s settings.SiteSettings) (Assembly, error) {
	if item == nil {
		return Assembly{}, ErrNoItem
	}
	out := Assembly{Item: item, ShowTitle: ShowTitle(item, s)}

	if item.IsPage() && item.BuilderEnabled {
		out.Mode = ModeBuilder
		out.Layout, out.Sections = a.builder(ctx, item.ID)
		return out, nil
	}

	if item.IsPage() && a.composer != nil {
		area := a.composer.Compose(ctx, PageContentRequest(item.ID))
		if area.Status == widgetsvc.AreaReady {
			out.Mode = ModeArea
			out.Area = area
			out.Outputs = a.renderer.RenderAll(ctx, area.Instances)
			return out, nil
		}
	}

	body, err := a.markup.Item(item)
	if err != nil {
		return Assembly{}, fmt.Errorf("pages: render %s: %w", item.ID, err)
	}
	out.Mode = ModeMarkup
	out.Body = body
	return out, nil
}

func (a *Assembler) builder(ctx context.Context, pageID string) (*widgets.Layout, []SectionOutput) {
	docs, err := a.reader.Get(ctx, LayoutQuery(pageID))
	if err != nil {
		if store.IsPermissionDenied(err) {
			a.diagnostics.Error("pages.layout.permission_denied", "page_id", pageID, "error", err)
		} else {
			a.logger.Warn("pages.layout.read_failed", "page_id", pageID, "error", err)
		}
		return nil, nil
	}
	if len(docs) == 0 {
		return nil, nil
	}
	layout, err := store.Decode[widgets.Layout](docs[0])
	if err != nil {
		a.logger.Warn("pages.layout.decode_failed", "page_id", pageID, "error", err)
		return nil, nil
	}

	// Render every widget of the layout in one concurrent batch, then
	// distribute the outputs back over the grid.
	var flat []widgets.Instance
	for _, section := range layout.Sections {
		for _, column := range section.Columns {
			flat = append(flat, column.Widgets...)
		}
	}
	outputs := a.renderer.RenderAll(ctx, flat)

	sections := make([]SectionOutput, 0, len(layout.Sections))
	next := 0
	for _, section := range layout.Sections {
		rendered := SectionOutput{ID: section.ID, Columns: make([]ColumnOutput, 0, len(section.Columns))}
		for _, column := range section.Columns {
			n := len(column.Widgets)
			rendered.Columns = append(rendered.Columns, ColumnOutput{Span: column.Span, Outputs: outputs[next : next+n]})
			next += n
		}
		sections = append(sections, rendered)
	}
	return &layout, sections
}

// HTML renders the assembled body with p.
func (a Assembly) HTML(p *widgetsvc.Presenter) template.HTML {
	switch a.Mode {
	case ModeArea:
		return p.PresentAll(a.Outputs)
	case ModeBuilder:
		var b strings.Builder
		for _, section := range a.Sections {
			fmt.Fprintf(&b, `<section class="builder-section" data-section-id="%s"><div class="builder-row">`, template.HTMLEscapeString(section.ID))
			for _, column := range section.Columns {
				span := column.Span
				if span <= 0 || span > 12 {
					span = 12
				}
				fmt.Fprintf(&b, `<div class="builder-col span-%d">`, span)
				b.WriteString(string(p.PresentAll(column.Outputs)))
				b.WriteString(`</div>`)
			}
			b.WriteString(`</div></section>`)
		}
		return template.HTML(b.String())
	default:
		return a.Body
	}
}
