package classify

import "strings"

// Overrides consults a custom mapping before delegating to a base
// classifier.
type Overrides struct {
	base  Classifier
	roles map[string]Role
}

// WithOverrides returns a classifier that maps the tags in roles directly and
// delegates every other tag to base. A nil base defaults to HTML. The map is
// copied, so later changes by the caller have no effect.
func WithOverrides(base Classifier, roles map[string]Role) Classifier {
	if base == nil {
		base = HTML
	}
	if len(roles) == 0 {
		return base
	}
	o := &Overrides{base: base, roles: make(map[string]Role, len(roles))}
	for tag, role := range roles {
		o.roles[strings.ToLower(tag)] = role
	}
	return o
}

// Classify implements Classifier.
func (o *Overrides) Classify(tag string) Role {
	if role, ok := o.roles[strings.ToLower(tag)]; ok {
		return role
	}
	return o.base.Classify(tag)
}

// Ambiguous reports keyword ties for unmapped tags when the base classifier
// is heuristic. Mapped tags are never ambiguous.
func (o *Overrides) Ambiguous(tag string) []string {
	if _, ok := o.roles[strings.ToLower(tag)]; ok {
		return nil
	}
	if a, ok := o.base.(interface{ Ambiguous(string) []string }); ok {
		return a.Ambiguous(tag)
	}
	return nil
}

// Base returns the classifier that handles unmapped tags.
func (o *Overrides) Base() Classifier {
	return o.base
}
