package font

import (
	"fmt"
	"sort"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Default role names.
const (
	RoleHeader = "header"
	RoleBody   = "body"
)

// Registry maps role names to faces.
type Registry struct {
	faces map[string]*Face
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{faces: make(map[string]*Face)}
}

// DefaultRegistry returns a registry with Go Bold as the header face and Go
// Regular as the body face.
func DefaultRegistry() (*Registry, error) {
	bold, err := ParseFace(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("go bold: %w", err)
	}
	regular, err := ParseFace(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("go regular: %w", err)
	}

	r := NewRegistry()
	r.Register(RoleHeader, bold)
	r.Register(RoleBody, regular)
	return r, nil
}

// Register binds a face to a role, replacing any earlier binding.
func (r *Registry) Register(role string, face *Face) {
	r.faces[role] = face
}

// Face returns the face bound to role.
func (r *Registry) Face(role string) (*Face, bool) {
	f, ok := r.faces[role]
	return f, ok
}

// Roles returns the registered role names in sorted order.
func (r *Registry) Roles() []string {
	roles := make([]string, 0, len(r.faces))
	for role := range r.faces {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// MeasureText returns the width of text drawn in the role's face at size
// points. An unknown role measures as 0.
func (r *Registry) MeasureText(text, role string, size float64) float64 {
	f, ok := r.faces[role]
	if !ok {
		return 0
	}
	return f.Measure(text, size)
}
