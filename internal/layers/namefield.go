package layers

import (
	"strconv"
	"strings"

	"citymap/internal/types"
)

// SelectNameField picks the column used for labels: the first column, in the
// layer's native order, whose lowercased name contains any of the keywords.
// When nothing matches, a column named fallback holding each feature's
// source position (Feature.Index) as decimal text is added to the layer and
// used instead.
func SelectNameField(l *types.Layer, keywords []string, fallback string) string {
	if field, ok := MatchNameField(l.Columns, keywords); ok {
		l.NameField = field
		for i := range l.Features {
			if l.Features[i].Attrs == nil {
				l.Features[i].Attrs = make(map[string]string)
			}
		}
		return field
	}

	for i := range l.Features {
		if l.Features[i].Attrs == nil {
			l.Features[i].Attrs = make(map[string]string)
		}
		l.Features[i].Attrs[fallback] = strconv.Itoa(l.Features[i].Index)
	}
	l.AddColumn(fallback)
	l.NameField = fallback
	return fallback
}

// MatchNameField applies the keyword rule to a column list without touching
// any layer.
func MatchNameField(columns, keywords []string) (string, bool) {
	for _, c := range columns {
		lc := strings.ToLower(c)
		for _, k := range keywords {
			if k == "" {
				continue
			}
			if strings.Contains(lc, strings.ToLower(k)) {
				return c, true
			}
		}
	}
	return "", false
}
