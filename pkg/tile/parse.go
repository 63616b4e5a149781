package tile

import (
	"fmt"
	"strconv"
)

// ParseCoordinate parses one path segment of a tile request.
//
// Only canonical base-10 literals are accepted: formatting the parsed value
// again must give back the input. That rules out leading zeros, signs,
// whitespace, decimals and hex. Negative values and values that overflow int
// are rejected as well.
func ParseCoordinate(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	if v < 0 || strconv.Itoa(v) != s {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	return v, nil
}

// ParseAddress validates the three path segments in x, y, z order and
// returns the first failure.
func ParseAddress(z, x, y string) (Address, error) {
	var addr Address
	var err error

	if addr.X, err = ParseCoordinate(x); err != nil {
		return Address{}, fmt.Errorf("x: %w", err)
	}
	if addr.Y, err = ParseCoordinate(y); err != nil {
		return Address{}, fmt.Errorf("y: %w", err)
	}
	if addr.Z, err = ParseCoordinate(z); err != nil {
		return Address{}, fmt.Errorf("z: %w", err)
	}
	return addr, nil
}
