// Package dedup removes assets from older packs that are byte-for-key
// superseded by an identically keyed asset in a newer pack, rewriting or
// deleting package files while preserving container validity.
package dedup

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Date is a calendar date in catalog files ("2006-01-02").
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON parses a quoted calendar date.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date as a quoted calendar date.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// Pack is one release (the base product or an add-on) with its own
// release date and asset subtree.
type Pack struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Date Date   `json:"date"`
	Path string `json:"path"`
}

// Catalog is the ordered list of known packs. Release date defines
// "newer supersedes older"; catalog order breaks ties.
//
// RootFrom/RootTo describe the base generation's asset-root folder
// alias: path components named RootFrom in the base pack's subtree are
// treated as RootTo, so identical logical files compare equal across
// generations.
type Catalog struct {
	Packs    []Pack `json:"packs"`
	RootFrom string `json:"root_alias_from,omitempty"`
	RootTo   string `json:"root_alias_to,omitempty"`
}

// LoadCatalog reads a catalog JSON document.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Packs) == 0 {
		return nil, fmt.Errorf("catalog %s lists no packs", path)
	}
	return &c, nil
}

// sorted returns the packs ordered oldest to newest. The sort is stable
// so packs sharing a release date keep their catalog order.
func (c *Catalog) sorted() []Pack {
	packs := make([]Pack, len(c.Packs))
	copy(packs, c.Packs)
	sort.SliceStable(packs, func(i, j int) bool {
		return packs[i].Date.Before(packs[j].Date.Time)
	})
	return packs
}

func date(year, month, day int) Date {
	return Date{time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DefaultCatalog returns the built-in catalog of retail packs: the base
// product and its expansion and stuff packs with their install subpaths
// inside a combined installation directory.
func DefaultCatalog() *Catalog {
	return &Catalog{
		RootFrom: "Sims3D",
		RootTo:   "3D",
		Packs: []Pack{
			{Name: "Base", Code: "Base", Date: date(2004, 9, 14), Path: "Double Deluxe/Base"},
			{Name: "University", Code: "EP1", Date: date(2005, 3, 1), Path: "University Life/EP1"},
			{Name: "Nightlife", Code: "EP2", Date: date(2005, 9, 13), Path: "Double Deluxe/EP2"},
			{Name: "Open for Business", Code: "EP3", Date: date(2006, 3, 2), Path: "Best of Business/EP3"},
			{Name: "Pets", Code: "EP4", Date: date(2006, 10, 18), Path: "Fun with Pets/EP4"},
			{Name: "Seasons", Code: "EP5", Date: date(2007, 3, 1), Path: "Seasons"},
			{Name: "Bon Voyage", Code: "EP6", Date: date(2007, 9, 4), Path: "Bon Voyage"},
			{Name: "FreeTime", Code: "EP7", Date: date(2008, 2, 26), Path: "Free Time"},
			{Name: "Apartment Life", Code: "EP8", Date: date(2008, 8, 26), Path: "Apartment Life"},
			{Name: "Family Fun Stuff", Code: "SP1", Date: date(2006, 4, 13), Path: "Fun with Pets/SP1"},
			{Name: "Glamour Life Stuff", Code: "SP3", Date: date(2006, 8, 31), Path: "Glamour Life Stuff"},
			{Name: "Celebration! Stuff", Code: "SP4", Date: date(2007, 4, 3), Path: "Double Deluxe/SP4"},
			{Name: "H&M Fashion Stuff", Code: "SP5", Date: date(2007, 5, 5), Path: "Best of Business/SP5"},
			{Name: "Teen Style Stuff", Code: "SP6", Date: date(2007, 9, 5), Path: "University Life/SP6"},
			{Name: "Kitchen & Bath Interior Design Stuff", Code: "SP7", Date: date(2008, 4, 15), Path: "Best of Business/SP7"},
			{Name: "IKEA Home Stuff", Code: "SP8", Date: date(2008, 5, 25), Path: "University Life/SP8"},
			{Name: "Mansions & Garden Stuff", Code: "SP9", Date: date(2008, 9, 17), Path: "Fun with Pets/SP9"},
		},
	}
}
