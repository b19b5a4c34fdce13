package scene

import "fmt"

// Kind discriminates the entity a Ref points at.
type Kind int

const (
	KindNone Kind = iota
	KindProjector
	KindCamera
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindProjector:
		return "projector"
	case KindCamera:
		return "camera"
	case KindObject:
		return "object"
	}
	return "none"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by String.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{KindNone, KindProjector, KindCamera, KindObject} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("scene: unknown entity kind %q", b)
}

// Ref names one entity. Target marks the aim marker of the projector ID
// rather than the projector body. The zero Ref selects nothing.
type Ref struct {
	Kind   Kind `json:"kind"`
	ID     int  `json:"id"`
	Target bool `json:"target,omitempty"`
}

// IsZero reports whether r refers to nothing.
func (r Ref) IsZero() bool { return r.Kind == KindNone }

// Entity returns r without the Target flag.
func (r Ref) Entity() Ref { return Ref{Kind: r.Kind, ID: r.ID} }

func (r Ref) String() string {
	if r.IsZero() {
		return "none"
	}
	if r.Target {
		return fmt.Sprintf("%s#%d/target", r.Kind, r.ID)
	}
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// Slot is a camera assignment role. At most one camera holds each slot.
type Slot int

const (
	SlotViewer Slot = iota
	SlotProjectorOutput
	SlotMappingPreview
	numSlots
)

func (s Slot) String() string {
	switch s {
	case SlotViewer:
		return "viewer"
	case SlotProjectorOutput:
		return "projector-output"
	case SlotMappingPreview:
		return "mapping-preview"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// EventType classifies registry notifications.
type EventType int

const (
	Created EventType = iota
	Updated
	Removed
	Selected
)

// Event is delivered to subscribers after a mutation has been applied.
type Event struct {
	Type EventType
	Ref  Ref
}
