// Package scene is the authoritative registry of projectors, cameras and
// scene objects. It owns every scene-graph node it creates and keeps an
// explicit node → entity map for picking.
//
// A Registry is not safe for concurrent use. Mutations are expected to run on
// the render loop goroutine; other goroutines hand work to it through the
// loop scheduler.
package scene

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"

	"projmap/internal/catalog"
	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/patterns"
	"projmap/internal/scenegraph"
)

var (
	ErrNoGraph          = errors.New("scene: no scene graph attached")
	ErrIncompatibleLens = errors.New("scene: lens not compatible with projector model")
	ErrUnknownEntity    = errors.New("scene: unknown entity")
)

// DefaultDepthTargetSize is the edge of each projector's depth target.
const DefaultDepthTargetSize = 2048

// Options configures a Registry. Zero values select defaults.
type Options struct {
	DepthTargetSize int
	Seed            uint64
}

// Registry owns all entities of one scene.
type Registry struct {
	graph   scenegraph.Graph
	catalog *catalog.Catalog
	opts    Options
	rng     *rand.Rand

	projectors store[Projector]
	cameras    store[Camera]
	objects    store[Object]

	owners    map[scenegraph.NodeID]Ref
	selection Ref
	active    [numSlots]int

	pattern *image.NRGBA
	subs    map[int]func(Event)
	nextSub int
}

// New returns an empty registry drawing into graph. A nil catalog selects
// the embedded one.
func New(graph scenegraph.Graph, cat *catalog.Catalog, opts Options) (*Registry, error) {
	if graph == nil {
		return nil, ErrNoGraph
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if opts.DepthTargetSize <= 0 {
		opts.DepthTargetSize = DefaultDepthTargetSize
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	return &Registry{
		graph:      graph,
		catalog:    cat,
		opts:       opts,
		rng:        rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		projectors: newStore[Projector](),
		cameras:    newStore[Camera](),
		objects:    newStore[Object](),
		owners:     make(map[scenegraph.NodeID]Ref),
		subs:       make(map[int]func(Event)),
	}, nil
}

// Graph returns the scene graph the registry draws into.
func (r *Registry) Graph() scenegraph.Graph { return r.graph }

// Catalog returns the model and lens tables in use.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// Subscribe registers f for every subsequent event and returns a function
// that removes it.
func (r *Registry) Subscribe(f func(Event)) (unsubscribe func()) {
	r.nextSub++
	id := r.nextSub
	r.subs[id] = f
	return func() { delete(r.subs, id) }
}

func (r *Registry) emit(t EventType, ref Ref) {
	ev := Event{Type: t, Ref: ref}
	for i := 1; i <= r.nextSub; i++ {
		if f, ok := r.subs[i]; ok {
			f(ev)
		}
	}
}

func (r *Registry) addNode(n scenegraph.Node, owner Ref) scenegraph.NodeID {
	id := r.graph.Add(n)
	if !owner.IsZero() {
		r.owners[id] = owner
	}
	return id
}

func (r *Registry) removeNodes(ids ...scenegraph.NodeID) {
	for _, id := range ids {
		delete(r.owners, id)
		if err := r.graph.Remove(id); err != nil {
			monitoring.Logf("scene: remove node %s: %v", id, err)
		}
	}
}

// calibrationTexture builds the fixture once and shares it between test
// patterns. It is never mutated.
func (r *Registry) calibrationTexture() *image.NRGBA {
	if r.pattern == nil {
		r.pattern = patterns.Calibration()
	}
	return r.pattern
}

// Owner resolves a scene-graph node to the entity that owns it.
func (r *Registry) Owner(node scenegraph.NodeID) (Ref, bool) {
	ref, ok := r.owners[node]
	return ref, ok
}

// Exists reports whether ref names a live entity.
func (r *Registry) Exists(ref Ref) bool {
	switch ref.Kind {
	case KindProjector:
		_, ok := r.projectors.get(ref.ID)
		return ok
	case KindCamera:
		_, ok := r.cameras.get(ref.ID)
		return ok && !ref.Target
	case KindObject:
		_, ok := r.objects.get(ref.ID)
		return ok && !ref.Target
	}
	return false
}

// NodeOf returns the node a manipulator attaches to for ref.
func (r *Registry) NodeOf(ref Ref) (scenegraph.NodeID, bool) {
	switch ref.Kind {
	case KindProjector:
		if p, ok := r.projectors.get(ref.ID); ok {
			if ref.Target {
				return p.nodes.target, true
			}
			return p.nodes.body, true
		}
	case KindCamera:
		if c, ok := r.cameras.get(ref.ID); ok && !ref.Target {
			return c.nodes.body, true
		}
	case KindObject:
		if o, ok := r.objects.get(ref.ID); ok && !ref.Target {
			return o.node, true
		}
	}
	return scenegraph.NodeID{}, false
}

// Selection returns the selected entity, or the zero Ref.
func (r *Registry) Selection() Ref { return r.selection }

// Select makes ref the single selected entity. The zero Ref clears the
// selection.
func (r *Registry) Select(ref Ref) error {
	if !ref.IsZero() && !r.Exists(ref) {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, ref)
	}
	if r.selection == ref {
		return nil
	}
	r.selection = ref
	r.emit(Selected, ref)
	return nil
}

// SelectableNodes returns every node that participates in picking.
func (r *Registry) SelectableNodes() []scenegraph.NodeID {
	out := make([]scenegraph.NodeID, 0, len(r.owners))
	for _, p := range r.projectors.sorted() {
		out = append(out, p.nodes.body, p.nodes.target)
	}
	for _, c := range r.cameras.sorted() {
		out = append(out, c.nodes.body)
	}
	for _, o := range r.objects.sorted() {
		out = append(out, o.node)
	}
	return out
}

// Projector returns a snapshot of projector id.
func (r *Registry) Projector(id int) (Projector, bool) {
	p, ok := r.projectors.get(id)
	if !ok {
		return Projector{}, false
	}
	return *p, true
}

// Camera returns a snapshot of camera id.
func (r *Registry) Camera(id int) (Camera, bool) {
	c, ok := r.cameras.get(id)
	if !ok {
		return Camera{}, false
	}
	return *c, true
}

// Object returns a snapshot of object id.
func (r *Registry) Object(id int) (Object, bool) {
	o, ok := r.objects.get(id)
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Projectors lists projectors by id.
func (r *Registry) Projectors() []Projector {
	items := r.projectors.sorted()
	out := make([]Projector, len(items))
	for i, p := range items {
		out[i] = *p
	}
	return out
}

// Cameras lists cameras by id.
func (r *Registry) Cameras() []Camera {
	items := r.cameras.sorted()
	out := make([]Camera, len(items))
	for i, c := range items {
		out[i] = *c
	}
	return out
}

// Objects lists scene objects by id.
func (r *Registry) Objects() []Object {
	items := r.objects.sorted()
	out := make([]Object, len(items))
	for i, o := range items {
		out[i] = *o
	}
	return out
}

// ActiveProjector returns the selected projector, or the lowest-id projector
// when none is selected.
func (r *Registry) ActiveProjector() (Projector, bool) {
	if r.selection.Kind == KindProjector {
		if p, ok := r.projectors.get(r.selection.ID); ok {
			return *p, true
		}
	}
	items := r.projectors.sorted()
	if len(items) == 0 {
		return Projector{}, false
	}
	return *items[0], true
}

// ActiveCamera returns the camera holding slot.
func (r *Registry) ActiveCamera(slot Slot) (Camera, bool) {
	if slot < 0 || slot >= numSlots || r.active[slot] == 0 {
		return Camera{}, false
	}
	return r.Camera(r.active[slot])
}

// AssignCamera gives slot to camera id, clearing it from every other camera
// first. Unassigning the current holder empties the slot; unassigning a
// camera that does not hold it changes nothing.
func (r *Registry) AssignCamera(id int, slot Slot, assigned bool) error {
	if slot < 0 || slot >= numSlots {
		return fmt.Errorf("scene: invalid camera slot %d", int(slot))
	}
	c, ok := r.cameras.get(id)
	if !ok {
		return fmt.Errorf("%w: camera #%d", ErrUnknownEntity, id)
	}
	if !assigned {
		if !c.Assigned[slot] {
			return nil
		}
		c.Assigned[slot] = false
		r.active[slot] = 0
		r.emit(Updated, Ref{Kind: KindCamera, ID: id})
		return nil
	}
	for _, other := range r.cameras.items {
		if other.ID != id && other.Assigned[slot] {
			other.Assigned[slot] = false
			r.emit(Updated, Ref{Kind: KindCamera, ID: other.ID})
		}
	}
	c.Assigned[slot] = true
	r.active[slot] = id
	r.emit(Updated, Ref{Kind: KindCamera, ID: id})
	return nil
}

// Delete removes ref and every resource it owns. A projector target ref
// deletes its projector. Deleting the selected entity clears the selection.
func (r *Registry) Delete(ref Ref) error {
	ref = ref.Entity()
	switch ref.Kind {
	case KindProjector:
		p, ok := r.projectors.get(ref.ID)
		if !ok {
			break
		}
		if p.TestPattern != 0 {
			r.deleteObject(p.TestPattern)
		}
		r.removeNodes(p.nodes.body, p.nodes.lens, p.nodes.frustum, p.nodes.light, p.nodes.target)
		if p.depth != nil {
			if err := p.depth.Release(); err != nil {
				monitoring.Logf("scene: release depth target of projector #%d: %v", p.ID, err)
			}
			p.depth = nil
		}
		r.projectors.remove(ref.ID)
		r.clearSelection(ref)
		r.emit(Removed, ref)
		return nil
	case KindCamera:
		c, ok := r.cameras.get(ref.ID)
		if !ok {
			break
		}
		r.removeNodes(c.nodes.body, c.nodes.helper, c.nodes.target)
		for s := range r.active {
			if r.active[s] == ref.ID {
				r.active[s] = 0
			}
		}
		r.cameras.remove(ref.ID)
		r.clearSelection(ref)
		r.emit(Removed, ref)
		return nil
	case KindObject:
		if _, ok := r.objects.get(ref.ID); ok {
			r.deleteObject(ref.ID)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownEntity, ref)
}

func (r *Registry) deleteObject(id int) {
	o, ok := r.objects.get(id)
	if !ok {
		return
	}
	r.removeNodes(o.node)
	if p, ok := r.projectors.get(o.Projector); ok && p.TestPattern == id {
		p.TestPattern = 0
	}
	r.objects.remove(id)
	ref := Ref{Kind: KindObject, ID: id}
	r.clearSelection(ref)
	r.emit(Removed, ref)
}

func (r *Registry) clearSelection(deleted Ref) {
	if r.selection.Entity() == deleted {
		r.selection = Ref{}
		r.emit(Selected, Ref{})
	}
}

// SetNodeTransform applies a manipulator result to the entity owning node.
// Moving a projector body keeps its aim target on the forward axis unless
// the user has placed the target by hand and the target is not locked.
// Moving a target marks it user-placed and, when locked, re-aims the
// projector at it.
func (r *Registry) SetNodeTransform(node scenegraph.NodeID, tr mathutil.Transform) error {
	ref, ok := r.owners[node]
	if !ok {
		return fmt.Errorf("scene: %w: %s", scenegraph.ErrUnknownNode, node)
	}
	switch ref.Kind {
	case KindProjector:
		p, _ := r.projectors.get(ref.ID)
		if ref.Target {
			p.Target = tr.Position
			p.UserMovedTarget = true
			if p.TargetLocked {
				p.Transform.LookAt(p.Target)
			}
		} else {
			dist := p.Target.Dist(p.Transform.Position)
			if dist < 1e-6 {
				dist = DefaultTargetDistance
			}
			p.Transform = tr
			if p.TargetLocked || !p.UserMovedTarget {
				p.Target = tr.Position.Add(tr.Forward().Scale(dist))
			}
		}
		if err := r.syncProjector(p); err != nil {
			return err
		}
	case KindCamera:
		c, _ := r.cameras.get(ref.ID)
		c.Transform = tr
		if err := r.syncCamera(c); err != nil {
			return err
		}
	case KindObject:
		o, _ := r.objects.get(ref.ID)
		o.Transform = tr
		if err := r.graph.SetTransform(o.node, tr.Matrix()); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
	}
	r.emit(Updated, ref.Entity())
	return nil
}

// NodeTransform returns the entity transform behind node, the value a
// manipulator starts from.
func (r *Registry) NodeTransform(node scenegraph.NodeID) (mathutil.Transform, bool) {
	ref, ok := r.owners[node]
	if !ok {
		return mathutil.Transform{}, false
	}
	switch ref.Kind {
	case KindProjector:
		p, _ := r.projectors.get(ref.ID)
		if ref.Target {
			return mathutil.NewTransform(p.Target), true
		}
		return p.Transform, true
	case KindCamera:
		c, _ := r.cameras.get(ref.ID)
		return c.Transform, true
	case KindObject:
		o, _ := r.objects.get(ref.ID)
		return o.Transform, true
	}
	return mathutil.Transform{}, false
}

// SetObjectVisible shows or hides a scene object.
func (r *Registry) SetObjectVisible(id int, visible bool) error {
	o, ok := r.objects.get(id)
	if !ok {
		return fmt.Errorf("%w: object #%d", ErrUnknownEntity, id)
	}
	if err := r.graph.SetVisible(o.node, visible); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	o.Visible = visible
	r.emit(Updated, Ref{Kind: KindObject, ID: id})
	return nil
}
