package coverage

import "strings"

// PrimaryName extracts the first alias from a gene name field such as
// "BRCA1,BRCA1P1" or "BRCA1;alias2". Commas take priority over semicolons.
// ok is false when the field is missing.
func PrimaryName(field string) (name string, ok bool) {
	if field == "" {
		return "", false
	}
	if i := strings.IndexByte(field, ','); i >= 0 {
		return field[:i], true
	}
	if i := strings.IndexByte(field, ';'); i >= 0 {
		return field[:i], true
	}
	return field, true
}

// ResolveGeneID picks the display identifier of a pre-aggregated row: the
// normalized gene name when it is non-empty, otherwise the reference name.
//
// This is deliberately not the same precedence as IdentityKey, which the
// raw aggregator uses to group regions.
func ResolveGeneID(geneName, refName string) string {
	if name, ok := PrimaryName(geneName); ok && name != "" {
		return name
	}
	return refName
}
