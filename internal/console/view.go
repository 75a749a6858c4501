package console

// View is the render state of the query page.
type View int

const (
	// ViewLoading shows the initial load placeholder.
	ViewLoading View = iota
	// ViewError shows the load error panel.
	ViewError
	// ViewWorkspace shows the query bound to the local page state.
	ViewWorkspace
	// ViewEmpty renders nothing.
	ViewEmpty
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewWorkspace:
		return "workspace"
	default:
		return "empty"
	}
}

// SelectView maps loader state and the latch to a render state.
//
// The order is load-bearing. Loading is gated on the latch being empty so
// a background revalidation never flips an already-rendered workspace
// back to the placeholder; the error branch is not gated, so a load error
// always preempts the workspace even when the latch holds a stale-but-
// valid query.
func SelectView(snap Snapshot, seeded bool) View {
	switch {
	case snap.Loading && !seeded:
		return ViewLoading
	case snap.Err != nil:
		return ViewError
	case seeded:
		return ViewWorkspace
	default:
		return ViewEmpty
	}
}
