// Package selection maps picked nodes back to registry entities and drives
// the transform manipulator attached to the selected node.
package selection

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"projmap/internal/history"
	"projmap/internal/mathutil"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
)

// ErrNotDragging is returned by drag updates outside a drag.
var ErrNotDragging = errors.New("selection: no drag in progress")

// State of the coordinator.
type State int

const (
	Idle State = iota
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	}
	return "idle"
}

// Mode is the manipulator operation.
type Mode int

const (
	Translate Mode = iota
	Rotate
	Scale
)

func (m Mode) String() string {
	switch m {
	case Rotate:
		return "rotate"
	case Scale:
		return "scale"
	}
	return "translate"
}

// Manipulator is the on-screen transform gizmo.
type Manipulator interface {
	Attach(node scenegraph.NodeID, mode Mode)
	Detach()
}

// Navigation is the free-look camera control, disabled while dragging.
type Navigation interface {
	SetEnabled(enabled bool)
}

type nopManipulator struct{}

func (nopManipulator) Attach(scenegraph.NodeID, Mode) {}
func (nopManipulator) Detach() {}

type nopNavigation struct{}

func (nopNavigation) SetEnabled(bool) {}

// Coordinator is the Idle/Selected/Dragging state machine.
type Coordinator struct {
	reg   *scene.Registry
	manip Manipulator
	nav   Navigation
	hist  *history.History

	state State
	mode  Mode
	ref   scene.Ref
	node  scenegraph.NodeID
	start mathutil.Transform

	unsubscribe func()
}

// New returns an idle coordinator. manip, nav and hist may be nil.
func New(reg *scene.Registry, manip Manipulator, nav Navigation, hist *history.History) *Coordinator {
	if manip == nil {
		manip = nopManipulator{}
	}
	if nav == nil {
		nav = nopNavigation{}
	}
	c := &Coordinator{reg: reg, manip: manip, nav: nav, hist: hist}
	c.unsubscribe = reg.Subscribe(c.onEvent)
	return c
}

// Close detaches the coordinator from the registry.
func (c *Coordinator) Close() {
	c.reset()
	c.unsubscribe()
}

func (c *Coordinator) State() State { return c.state }
func (c *Coordinator) Mode() Mode { return c.mode }
func (c *Coordinator) Current() scene.Ref { return c.ref }

// Click handles a pick result. uuid.Nil or a node with no owner means empty
// space. Clicks during a drag are ignored.
func (c *Coordinator) Click(node scenegraph.NodeID) error {
	if c.state == Dragging {
		return nil
	}
	ref, ok := c.reg.Owner(node)
	if node == uuid.Nil || !ok {
		return c.Deselect()
	}
	return c.Select(ref)
}

// PickAt picks the nearest selectable node along ray and clicks it.
func (c *Coordinator) PickAt(ray scenegraph.Ray) error {
	if c.state == Dragging {
		return nil
	}
	hit, ok := c.reg.Graph().Pick(ray, c.reg.SelectableNodes())
	if !ok {
		return c.Deselect()
	}
	return c.Click(hit.Node)
}

// Select makes ref the selection and attaches the manipulator to its node.
func (c *Coordinator) Select(ref scene.Ref) error {
	if c.state == Dragging {
		return nil
	}
	if ref.IsZero() {
		return c.Deselect()
	}
	node, ok := c.reg.NodeOf(ref)
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrUnknownEntity, ref)
	}
	c.ref, c.node = ref, node
	if err := c.reg.Select(ref); err != nil {
		c.reset()
		return err
	}
	c.manip.Attach(node, c.mode)
	c.state = Selected
	return nil
}

// Deselect returns to Idle.
func (c *Coordinator) Deselect() error {
	if c.state == Dragging {
		return nil
	}
	c.reset()
	return c.reg.Select(scene.Ref{})
}

// SetMode changes the manipulator mode, re-attaching it when something is
// selected. Mode changes during a drag are ignored.
func (c *Coordinator) SetMode(m Mode) {
	if c.state == Dragging {
		return
	}
	c.mode = m
	if c.state == Selected {
		c.manip.Attach(c.node, m)
	}
}

// BeginDrag starts manipulating the selected node and disables navigation.
func (c *Coordinator) BeginDrag() error {
	if c.state != Selected {
		return fmt.Errorf("selection: cannot drag in state %s", c.state)
	}
	tr, ok := c.reg.NodeTransform(c.node)
	if !ok {
		c.reset()
		return fmt.Errorf("%w: %s", scene.ErrUnknownEntity, c.ref)
	}
	c.start = tr
	c.state = Dragging
	c.nav.SetEnabled(false)
	return nil
}

// DragTo applies an intermediate manipulator transform.
func (c *Coordinator) DragTo(tr mathutil.Transform) error {
	if c.state != Dragging {
		return ErrNotDragging
	}
	return c.reg.SetNodeTransform(c.node, tr)
}

// EndDrag finishes the drag, re-enables navigation and records the change.
func (c *Coordinator) EndDrag() error {
	if c.state != Dragging {
		return ErrNotDragging
	}
	c.state = Selected
	c.nav.SetEnabled(true)

	end, ok := c.reg.NodeTransform(c.node)
	if !ok || end == c.start || c.hist == nil {
		return nil
	}
	reg, node, start := c.reg, c.node, c.start
	c.hist.Push(history.Action{
		Name: fmt.Sprintf("%s %s", c.mode, c.ref),
		Do:   func() error { return reg.SetNodeTransform(node, end) },
		Undo: func() error { return reg.SetNodeTransform(node, start) },
	})
	return nil
}

// CancelDrag restores the transform from before the drag.
func (c *Coordinator) CancelDrag() error {
	if c.state != Dragging {
		return ErrNotDragging
	}
	c.state = Selected
	c.nav.SetEnabled(true)
	return c.reg.SetNodeTransform(c.node, c.start)
}

// reset drops any drag and detaches the manipulator.
func (c *Coordinator) reset() {
	if c.state == Dragging {
		c.nav.SetEnabled(true)
	}
	if c.state != Idle {
		c.manip.Detach()
	}
	c.state = Idle
	c.ref = scene.Ref{}
	c.node = scenegraph.NodeID{}
}

// onEvent follows selection changes made directly on the registry and
// cancels the binding when the selected entity disappears.
func (c *Coordinator) onEvent(ev scene.Event) {
	switch ev.Type {
	case scene.Removed:
		if c.state != Idle && ev.Ref == c.ref.Entity() {
			c.reset()
		}
	case scene.Selected:
		if ev.Ref == c.ref {
			return
		}
		if ev.Ref.IsZero() {
			c.reset()
			return
		}
		if node, ok := c.reg.NodeOf(ev.Ref); ok {
			if c.state == Dragging {
				c.nav.SetEnabled(true)
			}
			c.ref, c.node = ev.Ref, node
			c.manip.Attach(node, c.mode)
			c.state = Selected
		}
	}
}
