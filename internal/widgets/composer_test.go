package widgets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/store/memory"
	"github.com/goliatone/go-site/widgets"
)

func seed(t *testing.T, s *memory.Store, collection string, docs ...store.Document) {
	t.Helper()
	for _, doc := range docs {
		if err := s.Put(context.Background(), collection, doc); err != nil {
			t.Fatalf("put %s: %v", collection, err)
		}
	}
}

func types(instances []widgets.Instance) []string {
	out := make([]string, len(instances))
	for i, inst := range instances {
		out[i] = inst.Type
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestComposeGlobalSidebarOrdersByOrder(t *testing.T) {
	s := memory.New()
	seed(t, s, widgets.CollectionAreas, store.Document{"id": "sidebar", "name": "Sidebar"})
	seed(t, s, widgets.CollectionInstances,
		store.Document{"id": "w1", "widgetAreaId": "sidebar", "type": "tag-cloud", "order": 2},
		store.Document{"id": "w2", "widgetAreaId": "sidebar", "type": "recent-posts", "order": 1},
	)

	res := NewComposer(s).Compose(context.Background(), AreaRequest{Name: "Sidebar"})
	if res.Status != AreaReady {
		t.Fatalf("expected ready, got %s (%v)", res.Status, res.Err)
	}
	if got := types(res.Instances); !equalStrings(got, []string{"recent-posts", "tag-cloud"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestComposeEmptyAreaIsNotLoading(t *testing.T) {
	s := memory.New()
	seed(t, s, widgets.CollectionAreas, store.Document{"id": "footer", "name": "Footer"})

	composer := NewComposer(s)
	res := composer.Compose(context.Background(), AreaRequest{Name: "Footer"})
	if res.Status != AreaEmpty || !res.Empty() || res.Err != nil {
		t.Fatalf("expected confirmed empty, got %+v", res)
	}
	res = composer.Compose(context.Background(), AreaRequest{Name: "Missing"})
	if res.Status != AreaEmpty {
		t.Fatalf("expected empty for missing area, got %s", res.Status)
	}
}

func TestComposeConcatenatesAreasInEncounterOrder(t *testing.T) {
	s := memory.New()
	seed(t, s, widgets.CollectionAreas,
		store.Document{"id": "b", "name": "Header"},
		store.Document{"id": "a", "name": "Header"},
	)
	seed(t, s, widgets.CollectionInstances,
		store.Document{"id": "a1", "widgetAreaId": "a", "type": "html", "order": 0},
		store.Document{"id": "b2", "widgetAreaId": "b", "type": "ticker", "order": 2},
		store.Document{"id": "b1", "widgetAreaId": "b", "type": "weather", "order": 1},
		store.Document{"id": "b3", "widgetAreaId": "b", "type": "chart", "order": 1},
	)
	res := NewComposer(s).Compose(context.Background(), AreaRequest{Name: "Header"})
	got := types(res.Instances)
	want := []string{"weather", "chart", "ticker", "html"}
	if !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComposePageScope(t *testing.T) {
	s := memory.New()
	seed(t, s, widgets.CollectionAreas,
		store.Document{"id": "global", "name": widgets.PageContentArea},
		store.Document{"id": "p1", "name": widgets.PageContentArea, "pageId": "page-1"},
	)
	seed(t, s, widgets.CollectionInstances,
		store.Document{"id": "g", "widgetAreaId": "global", "type": "html", "order": 0},
		store.Document{"id": "p", "widgetAreaId": "p1", "type": "gallery", "order": 0},
	)
	composer := NewComposer(s)
	ctx := context.Background()

	cases := []struct {
		name string
		req  AreaRequest
		want []string
	}{
		{"global", AreaRequest{Name: widgets.PageContentArea}, []string{"html"}},
		{"scoped", AreaRequest{Name: widgets.PageContentArea, PageID: "page-1", PageSpecific: true}, []string{"gallery"}},
		{"other page", AreaRequest{Name: widgets.PageContentArea, PageID: "page-2", PageSpecific: true}, nil},
		{"fallback", AreaRequest{Name: widgets.PageContentArea, PageID: "page-2", PageSpecific: true, FallbackToGlobal: true}, []string{"html"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := composer.Compose(ctx, tc.req)
			if got := types(res.Instances); !equalStrings(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestComposePermissionDeniedDegradesToEmpty(t *testing.T) {
	s := memory.New()
	seed(t, s, widgets.CollectionAreas, store.Document{"id": "sidebar", "name": "Sidebar"})
	s.Deny(widgets.CollectionInstances)

	res := NewComposer(s).Compose(context.Background(), AreaRequest{Name: "Sidebar"})
	if res.Status != AreaEmpty || !errors.Is(res.Err, store.ErrPermissionDenied) {
		t.Fatalf("expected empty with permission error, got %+v", res)
	}
}

func TestWatchReportsLoadingThenTracksChanges(t *testing.T) {
	s := memory.New()
	seed(t, s, widgets.CollectionAreas, store.Document{"id": "sidebar", "name": "Sidebar"})
	seed(t, s, widgets.CollectionInstances,
		store.Document{"id": "w1", "widgetAreaId": "sidebar", "type": "tag-cloud", "order": 2},
	)

	results := make(chan AreaResult, 64)
	stop, err := NewComposer(s).Watch(context.Background(), AreaRequest{Name: "Sidebar"}, func(res AreaResult) {
		results <- res
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	first := next(t, results)
	if first.Status != AreaLoading {
		t.Fatalf("expected loading first, got %s", first.Status)
	}
	waitFor(t, results, func(res AreaResult) bool {
		return res.Status == AreaReady && equalStrings(types(res.Instances), []string{"tag-cloud"})
	})

	seed(t, s, widgets.CollectionInstances,
		store.Document{"id": "w2", "widgetAreaId": "sidebar", "type": "recent-posts", "order": 1},
	)
	waitFor(t, results, func(res AreaResult) bool {
		return res.Status == AreaReady && equalStrings(types(res.Instances), []string{"recent-posts", "tag-cloud"})
	})

	if err := s.Delete(context.Background(), widgets.CollectionAreas, "sidebar"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitFor(t, results, func(res AreaResult) bool { return res.Status == AreaEmpty })
}

func next(t *testing.T, ch <-chan AreaResult) AreaResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for area result")
	}
	return AreaResult{}
}

func waitFor(t *testing.T, ch <-chan AreaResult, ok func(AreaResult) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case res := <-ch:
			if ok(res) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for expected area result")
		}
	}
}
