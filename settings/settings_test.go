package settings

import "testing"

func TestStaticHomepageRequiresPageID(t *testing.T) {
	s := SiteSettings{HomepageType: HomepageStatic}
	if s.StaticHomepage() {
		t.Fatal("static homepage without page id should be ignored")
	}
	s.HomepagePageID = "p1"
	if !s.StaticHomepage() || !s.IsHomepage("p1") || s.IsHomepage("p2") {
		t.Fatal("unexpected homepage detection")
	}
}

func TestCloneDetachesMaps(t *testing.T) {
	s := SiteSettings{MenuLocations: map[string]string{"primary": "m1"}}
	c := s.Clone()
	c.MenuLocations["primary"] = "m2"
	if s.MenuLocations["primary"] != "m1" {
		t.Fatal("clone shares menu locations")
	}
	if _, ok := s.MenuFor("footer"); ok {
		t.Fatal("expected no footer menu")
	}
}
