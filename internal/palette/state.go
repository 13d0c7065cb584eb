package palette

import "image/color"

// State of a color gesture.
type State int

const (
	Idle State = iota
	Previewing
)

func (s State) String() string {
	if s == Previewing {
		return "previewing"
	}
	return "idle"
}

// EventKind is the pointer phase of an Event.
type EventKind int

const (
	Down EventKind = iota
	Move
	Up
	Abort
)

// Event is one pointer event as seen by the palette.
type Event struct {
	Kind EventKind
	// OverPalette is true when the pointer is on the strip.
	OverPalette bool
	// Swatch is the swatch under the pointer, nil between swatches or off the strip.
	Swatch *Swatch
	// Held is true while the primary button is down.
	Held bool
}

// EffectKind names a side effect of a transition.
type EffectKind int

const (
	// Capture snapshots the color of every selected part not yet snapshotted.
	Capture EffectKind = iota
	// Preview paints Color on the selection and clears its highlight.
	Preview
	// Commit makes Color final, clears the selection and drops the snapshot.
	Commit
	// Rollback restores snapshotted colors and drops the snapshot. The selection stays.
	Rollback
	// NoticeNoSelection tells the user nothing is selected.
	NoticeNoSelection
)

// Effect is a side effect for the controller to carry out.
type Effect struct {
	Kind  EffectKind
	Color color.RGBA
}

// Transition is the whole color gesture state machine.
func Transition(s State, e Event, hasSelection bool) (State, []Effect) {
	switch s {
	case Idle:
		if e.Kind != Down || !e.OverPalette {
			return Idle, nil
		}
		if !hasSelection {
			return Idle, []Effect{{Kind: NoticeNoSelection}}
		}
		effects := []Effect{{Kind: Capture}}
		if e.Swatch != nil {
			effects = append(effects, Effect{Kind: Preview, Color: e.Swatch.Color})
		}
		return Previewing, effects

	case Previewing:
		switch e.Kind {
		case Down, Move:
			if e.Swatch != nil && (e.Held || e.Kind == Down) {
				return Previewing, []Effect{{Kind: Preview, Color: e.Swatch.Color}}
			}
			return Previewing, nil
		case Up:
			if e.Swatch != nil {
				return Idle, []Effect{{Kind: Commit, Color: e.Swatch.Color}}
			}
			return Idle, []Effect{{Kind: Rollback}}
		case Abort:
			return Idle, []Effect{{Kind: Rollback}}
		}
	}
	return s, nil
}
