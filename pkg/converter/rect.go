package converter

import (
	"fmt"
	"regexp"
	"strconv"
)

var rectRe = regexp.MustCompile(`^([+-]\d\d)([+-]\d\d\d),([+-]\d\d)([+-]\d\d\d)$`)

// Rect is an inclusive box of whole-degree cells.
type Rect struct {
	Lat1, Lon1 int
	Lat2, Lon2 int
}

// ParseRect parses "+50+000,+52+010": two corners, each a signed two-digit
// latitude followed by a signed three-digit longitude. The corners may be
// given in any order.
func ParseRect(s string) (Rect, error) {
	m := rectRe.FindStringSubmatch(s)
	if m == nil {
		return Rect{}, fmt.Errorf("%w: rectangle %q must look like +50+000,+52+010", ErrConfigValidation, s)
	}
	v := make([]int, 4)
	for i := range v {
		v[i], _ = strconv.Atoi(m[i+1])
	}
	r := Rect{Lat1: min(v[0], v[2]), Lon1: min(v[1], v[3]), Lat2: max(v[0], v[2]), Lon2: max(v[1], v[3])}
	return r, nil
}

// Contains reports whether the cell at lat, lon lies inside r.
func (r Rect) Contains(lat, lon int) bool {
	return lat >= r.Lat1 && lat <= r.Lat2 && lon >= r.Lon1 && lon <= r.Lon2
}

// String formats r the way ParseRect accepts it.
func (r Rect) String() string {
	return fmt.Sprintf("%+03d%+04d,%+03d%+04d", r.Lat1, r.Lon1, r.Lat2, r.Lon2)
}

// ParseCell extracts the cell coordinates from a tile file name such as
// "+51+009.dsf".
func ParseCell(name, ext string) (lat, lon int, ok bool) {
	if len(name) != 7+len(ext) || name[7:] != ext {
		return 0, 0, false
	}
	m := cellRe.FindStringSubmatch(name[:7])
	if m == nil {
		return 0, 0, false
	}
	lat, _ = strconv.Atoi(m[1])
	lon, _ = strconv.Atoi(m[2])
	return lat, lon, true
}

var cellRe = regexp.MustCompile(`^([+-]\d\d)([+-]\d\d\d)$`)
