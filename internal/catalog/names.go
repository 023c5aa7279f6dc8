package catalog

import (
	"fmt"
	"regexp"
	"strconv"
)

// namePattern is the tile name grammar: category, variant, angle.
var namePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}_[0-9]{3}$`)

// Name is a parsed tile name such as AF02_060.
type Name struct {
	Code  string // four character tilecode, e.g. AF02
	Angle int    // rotation in degrees
}

// ParseName splits a full tile name into tilecode and angle.
func ParseName(s string) (Name, error) {
	if !namePattern.MatchString(s) {
		return Name{}, fmt.Errorf("invalid tile name %q", s)
	}
	angle, _ := strconv.Atoi(s[5:])
	return Name{Code: s[:4], Angle: angle}, nil
}

// Category returns the two letter category prefix.
func (n Name) Category() string {
	return n.Code[:2]
}

func (n Name) String() string {
	return fmt.Sprintf("%s_%03d", n.Code, n.Angle)
}

// Rotate returns the name of the tile turned by steps of 60 degrees.
// The result is not checked against a catalog.
func Rotate(name string, steps int) (string, error) {
	n, err := ParseName(name)
	if err != nil {
		return "", err
	}
	n.Angle = ((n.Angle+60*steps)%360 + 360) % 360
	return n.String(), nil
}
