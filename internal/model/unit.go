// Package model defines the data types flowing through the spatial analysis pipeline.
package model

import (
	geom "github.com/twpayne/go-geom"
)

// SpatialUnit is one polygon with a stable identifier, boundary geometry, and
// named numeric attributes. Units are immutable once loaded; an attribute
// value of nil means the field is undefined for that unit and the unit is
// excluded from that variable's analysis subset.
type SpatialUnit struct {
	ID         string              `json:"id"`
	Name       string              `json:"name,omitempty"`
	Geometry   *geom.MultiPolygon  `json:"-"`
	Attributes map[string]*float64 `json:"attributes,omitempty"`
}

// Attribute returns the named attribute value and whether it is defined.
func (u SpatialUnit) Attribute(field string) (float64, bool) {
	v, ok := u.Attributes[field]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// HasAttribute reports whether the named attribute is defined for this unit.
func (u SpatialUnit) HasAttribute(field string) bool {
	_, ok := u.Attribute(field)
	return ok
}
