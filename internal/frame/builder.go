package frame

import (
	"fmt"

	"github.com/google/uuid"
)

// Builder assembles a Frame incrementally, catching duplicate IDs and
// duplicate node names before compilation ever sees the frame.
type Builder struct {
	frame *memFrame
	errs  []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{frame: newMemFrame()}
}

// AddNode registers a node object. If id is empty, a random ID is assigned.
// attrs may be nil.
func (b *Builder) AddNode(id ObjectID, typ ObjectType, name string, attrs map[string]any) ObjectID {
	if typ.IsEdgeType() {
		b.errs = append(b.errs, fmt.Errorf("frame: %q is an edge type, not a node type", typ))
		return id
	}
	if id == "" {
		id = ObjectID(uuid.NewString())
	}
	if _, exists := b.frame.objects[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("frame: duplicate object id %q", id))
		return id
	}
	if _, exists := b.frame.byName[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("frame: duplicate node name %q", name))
		return id
	}
	o := &Object{ID: id, Type: typ, Name: name, Attrs: attrs}
	if o.Attrs == nil {
		o.Attrs = make(map[string]any)
	}
	b.frame.objects[id] = o
	b.frame.byName[name] = o
	return id
}

// AddEdge registers an edge object from origin to target. If id is empty, a
// random ID is assigned.
func (b *Builder) AddEdge(id ObjectID, typ ObjectType, origin, target ObjectID, attrs map[string]any) ObjectID {
	if !typ.IsEdgeType() {
		b.errs = append(b.errs, fmt.Errorf("frame: %q is a node type, not an edge type", typ))
		return id
	}
	if id == "" {
		id = ObjectID(uuid.NewString())
	}
	if _, exists := b.frame.objects[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("frame: duplicate object id %q", id))
		return id
	}
	if _, ok := b.frame.objects[origin]; !ok {
		b.errs = append(b.errs, fmt.Errorf("frame: edge %q origin %q does not exist", id, origin))
	}
	if _, ok := b.frame.objects[target]; !ok {
		b.errs = append(b.errs, fmt.Errorf("frame: edge %q target %q does not exist", id, target))
	}
	o := &Object{ID: id, Type: typ, Origin: origin, Target: target, Attrs: attrs}
	if o.Attrs == nil {
		o.Attrs = make(map[string]any)
	}
	b.frame.objects[id] = o
	return id
}

// Build returns the assembled Frame along with any errors accumulated while
// adding nodes and edges. The Frame is usable even when errs is non-empty;
// callers that require a clean frame should check len(errs) == 0 themselves.
func (b *Builder) Build() (Frame, []error) {
	return b.frame, b.errs
}
