package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"image"
)

// Point is a pixel coordinate on the source image.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Polygon is an outline of a region to obscure, in detector order.
// Winding is not guaranteed; an empty polygon means "no region".
type Polygon []Point

// Bounds returns the smallest rectangle holding every vertex.
// Max is exclusive, so a single point yields a 1x1 rectangle.
func (p Polygon) Bounds() image.Rectangle {
	if len(p) == 0 {
		return image.Rectangle{}
	}

	r := image.Rect(p[0].X, p[0].Y, p[0].X+1, p[0].Y+1)
	for _, pt := range p[1:] {
		r = r.Union(image.Rect(pt.X, pt.Y, pt.X+1, pt.Y+1))
	}
	return r
}

// Polygons is stored as JSONB in the photos table
type Polygons []Polygon

func (p *Polygons) Scan(value any) error {
	if value == nil {
		*p = Polygons{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("invalid type %T for Polygons", value)
	}

	if err := json.Unmarshal(b, p); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to Polygons: %w", err)
	}
	return nil
}

func (p Polygons) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Polygons to JSONB: %w", err)
	}

	return res, nil
}
