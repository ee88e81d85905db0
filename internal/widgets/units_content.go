package widgets

import (
	"context"
	"html/template"
	"strconv"
	"strings"

	"github.com/goliatone/go-site/internal/markup"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/validation"
	"github.com/goliatone/go-site/widgets"
)

// ChartPoint is one labelled value. Share is the value's fraction of the
// series total, used by pie charts.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

// ChartView is the data of the chart widget.
type ChartView struct {
	Kind   widgets.ChartKind `json:"kind"`
	Title  string            `json:"title,omitempty"`
	Points []ChartPoint      `json:"points"`
	Max    float64           `json:"max"`
}

type chartUnit struct {
	unitBase
	reader store.Reader
}

func newChart(deps Deps) Unit {
	return &chartUnit{
		unitBase: unitBase{
			kind: widgets.TypeChart,
			schema: validation.MustCompile(map[string]any{
				"type":       "object",
				"properties": map[string]any{"chartId": map[string]any{"type": "string"}},
			}),
		},
		reader: deps.Reader,
	}
}

func (u *chartUnit) Fetch(ctx context.Context, req Request) (any, error) {
	id := stringValue(req.Config, "chartId")
	if id == "" || u.reader == nil {
		return nil, ErrNotConfigured
	}
	doc, err := u.reader.Document(ctx, widgets.CollectionCharts, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}
	return store.Decode[widgets.Chart](doc)
}

func (u *chartUnit) Render(inst widgets.Instance, _ map[string]any, data any) widgets.Output {
	chart, _ := data.(widgets.Chart)
	switch chart.Type {
	case widgets.ChartBar, widgets.ChartLine, widgets.ChartPie:
	default:
		return widgets.Output{
			InstanceID: inst.ID,
			Type:       inst.Type,
			State:      widgets.StateUnsupported,
			Message:    "Unknown chart type: " + string(chart.Type),
		}
	}
	view := ChartView{Kind: chart.Type, Title: chart.Title, Points: chartPoints(chart.Data)}
	if len(view.Points) == 0 {
		return widgets.Empty(inst, "This chart has no data.")
	}
	var total float64
	for _, p := range view.Points {
		total += p.Value
		view.Max = max(view.Max, p.Value)
	}
	if total != 0 {
		for i := range view.Points {
			view.Points[i].Share = view.Points[i].Value / total
		}
	}
	return widgets.Rendered(inst, chart.Title, view)
}

// chartPoints reads records shaped {label|name, value}. Records without a
// numeric value are skipped.
func chartPoints(records []map[string]any) []ChartPoint {
	out := make([]ChartPoint, 0, len(records))
	for _, record := range records {
		label := stringValue(record, "label")
		if label == "" {
			label = stringValue(record, "name")
		}
		value, ok := number(record["value"])
		if !ok {
			continue
		}
		out = append(out, ChartPoint{Label: label, Value: value})
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

type htmlUnit struct {
	unitBase
	markup *markup.Renderer
}

func newHTML(deps Deps) Unit {
	return &htmlUnit{
		unitBase: unitBase{
			kind: widgets.TypeHTML,
			schema: validation.MustCompile(map[string]any{
				"type":       "object",
				"properties": map[string]any{"html": map[string]any{"type": "string"}},
			}),
		},
		markup: deps.Markup,
	}
}

func (u *htmlUnit) Fetch(_ context.Context, req Request) (any, error) {
	raw := stringValue(req.Config, "html")
	if raw == "" {
		return nil, ErrNotConfigured
	}
	return u.markup.Sanitize(raw), nil
}

func (u *htmlUnit) Render(inst widgets.Instance, config map[string]any, data any) widgets.Output {
	body, _ := data.(template.HTML)
	if strings.TrimSpace(string(body)) == "" {
		return widgets.Empty(inst, "")
	}
	return widgets.Rendered(inst, stringValue(config, "title"), body)
}

// GalleryImage is one picture of a gallery widget.
type GalleryImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Gallery is the data of the gallery widget.
type Gallery struct {
	Images []GalleryImage `json:"images"`
}

type galleryUnit struct {
	unitBase
}

func newGallery(Deps) Unit {
	return &galleryUnit{unitBase: unitBase{
		kind: widgets.TypeGallery,
		schema: validation.MustCompile(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"images": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"url"},
						"properties": map[string]any{
							"url":     map[string]any{"type": "string", "minLength": 1},
							"caption": map[string]any{"type": "string"},
						},
					},
				},
			},
		}),
	}}
}

func (u *galleryUnit) Fetch(_ context.Context, req Request) (any, error) {
	raw, ok := req.Config["images"].([]any)
	if !ok {
		return nil, ErrNotConfigured
	}
	gallery := Gallery{Images: make([]GalleryImage, 0, len(raw))}
	for _, entry := range raw {
		image, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if url := stringValue(image, "url"); url != "" {
			gallery.Images = append(gallery.Images, GalleryImage{URL: url, Caption: stringValue(image, "caption")})
		}
	}
	return gallery, nil
}

func (u *galleryUnit) Render(inst widgets.Instance, config map[string]any, data any) widgets.Output {
	gallery, _ := data.(Gallery)
	if len(gallery.Images) == 0 {
		return widgets.Empty(inst, "")
	}
	return widgets.Rendered(inst, stringValue(config, "title"), gallery)
}
