// Package scene keeps a rendered scene consistent with the latest set of
// server-side geometric objects.
//
// Objects are keyed by a stable identifier. The Synchronizer owns the
// mapping from identifier to engine resource and releases every resource
// explicitly when an entry leaves the mapping.
package scene

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMissingID        = errors.New("descriptor has no id")
	ErrUnknownKind      = errors.New("unknown kind")
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Kind is the closed set of displayable object kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindBox
	KindSphere
	KindPoint
	KindCylinder
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "Box"
	case KindSphere:
		return "Sphere"
	case KindPoint:
		return "Point"
	case KindCylinder:
		return "Cylinder"
	case KindMesh:
		return "Mesh"
	default:
		return "Unknown"
	}
}

// ParseKind maps a wire kind name to a Kind. Matching is case-insensitive and
// accepts qualified names such as "compas.geometry/Box".
func ParseKind(raw string) Kind {
	name := strings.TrimSpace(raw)
	if idx := strings.LastIndexAny(name, "/."); idx >= 0 {
		name = name[idx+1:]
	}
	switch strings.ToLower(name) {
	case "box":
		return KindBox
	case "sphere":
		return KindSphere
	case "point":
		return KindPoint
	case "cylinder":
		return KindCylinder
	case "mesh":
		return KindMesh
	default:
		return KindUnknown
	}
}

type Vec3 [3]float64

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

// Frame is an optional orientation given as two in-plane axes.
type Frame struct {
	XAxis Vec3 `json:"xaxis"`
	YAxis Vec3 `json:"yaxis"`
}

type Placement struct {
	Position    Vec3   `json:"position"`
	Orientation *Frame `json:"orientation,omitempty"`
}

// Descriptor is the server-provided description of one object, already
// normalized at the transport boundary.
type Descriptor struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Parameters map[string]any `json:"parameters"`
	Placement  Placement      `json:"placement"`
}

// Geometry is the kind-specific part of an Object. The set of
// implementations is closed; switch on the concrete type.
type Geometry interface {
	Kind() Kind
	sealed()
}

type Box struct {
	XSize, YSize, ZSize float64
}

type Sphere struct {
	Radius float64
}

type Point struct{}

type Cylinder struct {
	Radius, Height float64
}

type Mesh struct {
	Vertices []Vec3
	Faces    [][]int
}

func (Box) Kind() Kind      { return KindBox }
func (Sphere) Kind() Kind   { return KindSphere }
func (Point) Kind() Kind    { return KindPoint }
func (Cylinder) Kind() Kind { return KindCylinder }
func (Mesh) Kind() Kind     { return KindMesh }

func (Box) sealed()      {}
func (Sphere) sealed()   {}
func (Point) sealed()    {}
func (Cylinder) sealed() {}
func (Mesh) sealed()     {}

// Object is a constructed, displayable object. It is immutable once built.
type Object struct {
	ID        string
	Geometry  Geometry
	Placement Placement
}

func (o Object) Kind() Kind {
	if o.Geometry == nil {
		return KindUnknown
	}
	return o.Geometry.Kind()
}

// Build constructs an Object from a descriptor. It is a pure function of the
// descriptor's kind, parameters and placement.
func Build(desc Descriptor) (Object, error) {
	id := strings.TrimSpace(desc.ID)
	if id == "" {
		return Object{}, ErrMissingID
	}
	if err := validVec(desc.Placement.Position); err != nil {
		return Object{}, fmt.Errorf("position: %w", err)
	}
	obj := Object{ID: id, Placement: desc.Placement}
	params := desc.Parameters
	switch ParseKind(desc.Kind) {
	case KindBox:
		x, err := positiveParam(params, "xsize")
		if err != nil {
			return Object{}, err
		}
		y, err := positiveParam(params, "ysize")
		if err != nil {
			return Object{}, err
		}
		z, err := positiveParam(params, "zsize")
		if err != nil {
			return Object{}, err
		}
		obj.Geometry = Box{XSize: x, YSize: y, ZSize: z}
	case KindSphere:
		r, err := positiveParam(params, "radius")
		if err != nil {
			return Object{}, err
		}
		obj.Geometry = Sphere{Radius: r}
	case KindPoint:
		obj.Geometry = Point{}
	case KindCylinder:
		r, err := positiveParam(params, "radius")
		if err != nil {
			return Object{}, err
		}
		h, err := positiveParam(params, "height")
		if err != nil {
			return Object{}, err
		}
		obj.Geometry = Cylinder{Radius: r, Height: h}
	case KindMesh:
		mesh, err := meshParams(params)
		if err != nil {
			return Object{}, err
		}
		obj.Geometry = mesh
	default:
		return Object{}, fmt.Errorf("%w %q", ErrUnknownKind, desc.Kind)
	}
	return obj, nil
}

func positiveParam(params map[string]any, key string) (float64, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingParameter, key)
	}
	value, ok := AsFloat(raw)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidParameter, key, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidParameter, key, value)
	}
	return value, nil
}

func meshParams(params map[string]any) (Mesh, error) {
	rawVertices, ok := params["vertices"]
	if !ok {
		return Mesh{}, fmt.Errorf("%w: vertices", ErrMissingParameter)
	}
	list, ok := rawVertices.([]any)
	if !ok || len(list) == 0 {
		return Mesh{}, fmt.Errorf("%w: vertices must be a non-empty list", ErrInvalidParameter)
	}
	mesh := Mesh{Vertices: make([]Vec3, 0, len(list))}
	for i, raw := range list {
		v, ok := AsVec3(raw)
		if !ok {
			return Mesh{}, fmt.Errorf("%w: vertices[%d]", ErrInvalidParameter, i)
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}
	if rawFaces, ok := params["faces"].([]any); ok {
		for i, rawFace := range rawFaces {
			indices, ok := rawFace.([]any)
			if !ok || len(indices) < 3 {
				return Mesh{}, fmt.Errorf("%w: faces[%d]", ErrInvalidParameter, i)
			}
			face := make([]int, 0, len(indices))
			for _, rawIndex := range indices {
				f, ok := AsFloat(rawIndex)
				idx := int(f)
				if !ok || float64(idx) != f || idx < 0 || idx >= len(mesh.Vertices) {
					return Mesh{}, fmt.Errorf("%w: faces[%d] index %v", ErrInvalidParameter, i, rawIndex)
				}
				face = append(face, idx)
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}
	return mesh, nil
}

func validVec(v Vec3) error {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: non-finite coordinate in %s", ErrInvalidParameter, v)
		}
	}
	return nil
}

// AsFloat converts a decoded JSON number (or a Go numeric) to float64.
func AsFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// AsVec3 converts a decoded [x, y, z] list, or an {x, y, z} object, to Vec3.
func AsVec3(raw any) (Vec3, bool) {
	var out Vec3
	switch v := raw.(type) {
	case Vec3:
		return v, true
	case []float64:
		if len(v) != 3 {
			return out, false
		}
		copy(out[:], v)
		return out, true
	case []any:
		if len(v) != 3 {
			return out, false
		}
		for i, c := range v {
			f, ok := AsFloat(c)
			if !ok {
				return Vec3{}, false
			}
			out[i] = f
		}
		return out, true
	case map[string]any:
		for i, key := range []string{"x", "y", "z"} {
			f, ok := AsFloat(v[key])
			if !ok {
				return Vec3{}, false
			}
			out[i] = f
		}
		return out, true
	default:
		return out, false
	}
}
