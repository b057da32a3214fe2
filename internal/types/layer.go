package types

import "github.com/paulmach/orb"

// Feature is one administrative area: its (multi-)polygon and the attribute
// table values keyed by column name.
type Feature struct {
	Geometry orb.MultiPolygon
	Attrs    map[string]string
	// Index is the record's position in the source, counting records that
	// were skipped on load.
	Index int
}

// Layer holds a labelled geometry collection such as the districts or the
// sub-districts of a city.
type Layer struct {
	Name     string
	Columns  []string // attribute names in the source's native order
	Features []Feature
	CRS      string // e.g. "EPSG:4326"

	// NameField is the column used for labels. It is set once by
	// layers.SelectNameField and is present on every feature afterwards.
	NameField string
}

// Label returns the display name of feature i.
func (l *Layer) Label(i int) string {
	return l.Features[i].Attrs[l.NameField]
}

// HasColumn reports whether the layer's attribute table has the column.
func (l *Layer) HasColumn(name string) bool {
	for _, c := range l.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the table if it is not there yet.
func (l *Layer) AddColumn(name string) {
	if !l.HasColumn(name) {
		l.Columns = append(l.Columns, name)
	}
}

// Bound returns the bounding box of all feature geometries. The zero bound
// is returned for a layer without coordinates.
func (l *Layer) Bound() (orb.Bound, bool) {
	var (
		b  orb.Bound
		ok bool
	)
	for _, f := range l.Features {
		if len(f.Geometry) == 0 {
			continue
		}
		fb := f.Geometry.Bound()
		if !ok {
			b, ok = fb, true
			continue
		}
		b = b.Union(fb)
	}
	return b, ok
}
