package geometry

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownShape  = errors.New("geometry: unknown shape")
	ErrInvalidParams = errors.New("geometry: invalid shape parameters")
)

// Params are the named numeric parameters of a shape.
type Params map[string]float64

func (p Params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

type Registry struct {
	shapes map[string]func(Params) (Shape, error)
}

func NewRegistry() *Registry {
	r := &Registry{shapes: make(map[string]func(Params) (Shape, error))}

	r.shapes["circle"] = func(p Params) (Shape, error) {
		c := Circle{X: p.get("x", 0), Y: p.get("y", 0), R: p.get("radius", 5)}
		if c.R < 0 {
			return nil, fmt.Errorf("%w: circle radius %g", ErrInvalidParams, c.R)
		}
		return c, nil
	}
	r.shapes["rect"] = func(p Params) (Shape, error) {
		rc := Rect{X: p.get("x", 0), Y: p.get("y", 0), W: p.get("width", 1), H: p.get("height", 1)}
		if rc.W <= 0 || rc.H <= 0 {
			return nil, fmt.Errorf("%w: rect %gx%g", ErrInvalidParams, rc.W, rc.H)
		}
		return rc, nil
	}
	r.shapes["plate"] = func(p Params) (Shape, error) {
		pl := Plate{
			X: p.get("x", 0), Y: p.get("y", 0),
			Length: p.get("length", 20), Thickness: p.get("thickness", 2),
			Angle: p.get("angle", 0),
		}
		if pl.Length <= 0 || pl.Thickness <= 0 {
			return nil, fmt.Errorf("%w: plate %gx%g", ErrInvalidParams, pl.Length, pl.Thickness)
		}
		return pl, nil
	}
	r.shapes["airfoil"] = func(p Params) (Shape, error) {
		a := Airfoil{
			X: p.get("x", 0), Y: p.get("y", 0),
			Chord:     p.get("chord", 60),
			Camber:    p.get("camber", 0.02),
			CamberPos: p.get("camber_pos", 0.4),
			Thickness: p.get("thickness", 0.12),
			Angle:     p.get("angle", 0),
		}
		if a.Chord <= 0 || a.Thickness <= 0 {
			return nil, fmt.Errorf("%w: airfoil chord %g thickness %g", ErrInvalidParams, a.Chord, a.Thickness)
		}
		return a, nil
	}

	return r
}

// Register adds or replaces a named shape constructor.
func (r *Registry) Register(name string, fn func(Params) (Shape, error)) {
	r.shapes[name] = fn
}

func (r *Registry) Build(name string, p Params) (Shape, error) {
	fn, ok := r.shapes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, name)
	}
	return fn(p)
}

// Names lists registered shapes in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.shapes))
	for name := range r.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the registry used by config and scenario files.
var Default = NewRegistry()

func Build(name string, p Params) (Shape, error) {
	return Default.Build(name, p)
}
