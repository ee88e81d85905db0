package widgets

import (
	"strings"
	"testing"

	"github.com/goliatone/go-site/widgets"
)

func TestPresenterRendersStates(t *testing.T) {
	p, err := NewPresenter()
	if err != nil {
		t.Fatalf("presenter: %v", err)
	}
	inst := widgets.Instance{ID: "w1", Type: "featured+list"}
	cases := []struct {
		name string
		out  widgets.Output
		want []string
	}{
		{"loading", widgets.Loading(inst), []string{`widget-loading`, `data-widget-id="w1"`}},
		{"unconfigured", widgets.Unconfigured(inst, ""), []string{"Please configure this widget."}},
		{"rendered", widgets.Rendered(inst, "Picks", FeaturedList{
			Featured: PostEntry{ID: "p", Title: "Lead <1>", URL: "/lead"},
			List:     []PostEntry{{ID: "q", Title: "Next", URL: "/next"}},
		}), []string{"widget-featured-list", `<a href="/lead">Lead &lt;1&gt;</a>`, `<a href="/next">Next</a>`, "Picks"}},
		{"tags", widgets.Rendered(widgets.Instance{Type: widgets.TypeTagCloud}, "Tags", TagCloud{Tags: []TagWeight{{Tag: "go", Size: 5}}}), []string{`tag-size-5`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			html, err := p.Present(tc.out)
			if err != nil {
				t.Fatalf("present: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(string(html), want) {
					t.Fatalf("missing %q in %s", want, html)
				}
			}
		})
	}
}

func TestPresentAllKeepsOrder(t *testing.T) {
	p, err := NewPresenter()
	if err != nil {
		t.Fatalf("presenter: %v", err)
	}
	html := string(p.PresentAll([]widgets.Output{
		widgets.Empty(widgets.Instance{ID: "a", Type: "html"}, "first"),
		widgets.Unsupported(widgets.Instance{ID: "b", Type: "marquee"}),
	}))
	if strings.Index(html, "first") > strings.Index(html, "marquee") || !strings.Contains(html, "Unsupported widget type") {
		t.Fatalf("unexpected output %s", html)
	}
}
