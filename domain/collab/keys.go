package collab

import (
	"fmt"
	"strconv"
	"strings"
)

// PixelKey formats a coordinate pair as the "x,y" key used by the sparse
// canvas representation.
func PixelKey(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

// ParsePixelKey parses an "x,y" sparse canvas key.
func ParsePixelKey(key string) (x, y int, err error) {
	sx, sy, ok := strings.Cut(key, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid pixel key %q", key)
	}
	x, err = strconv.Atoi(sx)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pixel key %q: %w", key, err)
	}
	y, err = strconv.Atoi(sy)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pixel key %q: %w", key, err)
	}
	return x, y, nil
}
