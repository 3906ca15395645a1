package adapters

import "strings"

// upperPtr uppercases an optional severity so payload casing variants
// land on the canonical enum.
func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(*s)
	return &v
}
