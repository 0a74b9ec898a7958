package dedup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"tangled.org/simmod.net/dbpkg/dedup"
)

func testDate(year, month, day int) dedup.Date {
	return dedup.Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func TestLoadCatalog(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		doc := `{
			"root_alias_from": "Old",
			"root_alias_to": "New",
			"packs": [
				{"name": "Base", "code": "Base", "date": "2004-09-14", "path": "Base"},
				{"name": "First", "code": "EP1", "date": "2005-03-01", "path": "EP1"}
			]
		}`
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}

		c, err := dedup.LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog failed: %v", err)
		}
		if len(c.Packs) != 2 {
			t.Fatalf("expected 2 packs, got %d", len(c.Packs))
		}
		if c.RootFrom != "Old" || c.RootTo != "New" {
			t.Errorf("alias %q -> %q", c.RootFrom, c.RootTo)
		}
		if !c.Packs[0].Date.Equal(testDate(2004, 9, 14).Time) {
			t.Errorf("unexpected date %v", c.Packs[0].Date)
		}
	})

	t.Run("EmptyPackList", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		if err := os.WriteFile(path, []byte(`{"packs": []}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := dedup.LoadCatalog(path); err == nil {
			t.Error("expected error for empty pack list")
		}
	})

	t.Run("BadDate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		doc := `{"packs": [{"name": "X", "code": "X", "date": "14/09/2004", "path": "X"}]}`
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := dedup.LoadCatalog(path); err == nil {
			t.Error("expected error for malformed date")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := dedup.LoadCatalog(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(testDate(2008, 9, 17))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `"2008-09-17"` {
		t.Errorf("marshalled to %s", b)
	}

	var d dedup.Date
	if err := json.Unmarshal(b, &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !d.Equal(testDate(2008, 9, 17).Time) {
		t.Errorf("round trip gave %v", d)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := dedup.DefaultCatalog()
	if len(c.Packs) != 17 {
		t.Fatalf("expected 17 packs, got %d", len(c.Packs))
	}
	if c.RootFrom != "Sims3D" || c.RootTo != "3D" {
		t.Errorf("alias %q -> %q", c.RootFrom, c.RootTo)
	}

	// The base product must be the oldest release; order within the
	// catalog is by code, not date.
	oldest := c.Packs[0]
	for _, p := range c.Packs[1:] {
		if p.Date.Before(oldest.Date.Time) {
			t.Errorf("%s predates the base product", p.Name)
		}
	}

	codes := make(map[string]struct{})
	for _, p := range c.Packs {
		if p.Name == "" || p.Code == "" || p.Path == "" {
			t.Errorf("incomplete pack record: %+v", p)
		}
		if _, dup := codes[p.Code]; dup {
			t.Errorf("duplicate code %s", p.Code)
		}
		codes[p.Code] = struct{}{}
	}
}
