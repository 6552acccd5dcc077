package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Repository", KeyRepo, "github.com/acme/docs", Repository("github.com/acme/docs")},
		{"Site", KeySite, "Docs", Site("Docs")},
		{"Space", KeySpace, "DOC", Space("DOC")},
		{"Title", KeyTitle, "Intro", Title("Intro")},
		{"Path", KeyPath, "guides/intro.md", Path("guides/intro.md")},
		{"Section", KeySection, "Guides", Section("Guides")},
		{"PageID", KeyPageID, "42", PageID("42")},
		{"ParentID", KeyParentID, "7", ParentID("7")},
		{"Operation", KeyOperation, "create", Operation("create")},
		{"Level", KeyLevel, "Guides/Advanced", Level("Guides/Advanced")},
		{"URL", KeyURL, "https://x", URL("https://x")},
		{"Method", KeyMethod, "GET", Method("GET")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s key mismatch: got %s want %s", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Errorf("%s value mismatch: got %s want %s", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Errorf("Count attr unexpected: %v", a)
	}
	if a := Status(404); a.Key != KeyStatus || a.Value.Int64() != 404 {
		t.Errorf("Status attr unexpected: %v", a)
	}
	if a := DurationMS(1.5); a.Value.Float64() != 1.5 {
		t.Errorf("DurationMS attr unexpected: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Errorf("nil error should render empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Errorf("unexpected error attr: %v", a)
	}
}
