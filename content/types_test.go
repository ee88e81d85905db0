package content

import (
	"reflect"
	"testing"
)

func TestTitleVisibleDefaultsToTrue(t *testing.T) {
	item := &Item{Kind: KindPage}
	if !item.TitleVisible() {
		t.Fatal("expected title visible by default")
	}
	hidden := false
	item.ShowTitle = &hidden
	if item.TitleVisible() {
		t.Fatal("expected explicit showTitle=false to hide title")
	}
}

func TestKindCollection(t *testing.T) {
	if KindPage.Collection() != CollectionPages || KindPost.Collection() != CollectionPosts {
		t.Fatal("unexpected collection mapping")
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags(" b, c ,,d ")
	want := []string{"b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitTags = %v, want %v", got, want)
	}
	if SplitTags("") != nil {
		t.Fatal("expected nil for empty input")
	}
}
