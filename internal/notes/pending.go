package notes

// Kind names the modal action a Pending stands for.
type Kind int

const (
	KindEdit Kind = iota
	KindDelete
	KindSearch
	KindAttach
)

func (k Kind) String() string {
	switch k {
	case KindEdit:
		return "edit"
	case KindDelete:
		return "delete"
	case KindSearch:
		return "search"
	case KindAttach:
		return "attach"
	}
	return "unknown"
}

type State int

const (
	StateAwaiting State = iota
	StateApplied
	StateCancelled
)

// Pending is a modal action waiting for the user. It resolves exactly once,
// either with the user's answer or by cancellation.
//
// The shell keeps at most one Pending outstanding and performs no other
// mutation on the controller until it resolves.
type Pending[T any] struct {
	kind   Kind
	noteID string
	state  State

	apply  func(T) (applied bool, err error)
	cancel func()
}

func newPending[T any](kind Kind, noteID string, apply func(T) (bool, error), cancel func()) *Pending[T] {
	return &Pending[T]{kind: kind, noteID: noteID, apply: apply, cancel: cancel}
}

func (p *Pending[T]) Kind() Kind     { return p.kind }
func (p *Pending[T]) NoteID() string { return p.noteID }
func (p *Pending[T]) State() State   { return p.state }

// Resolve hands the user's answer to the controller. When the answer does not
// lead to a change (declined, invalid, stale) the action ends cancelled.
func (p *Pending[T]) Resolve(v T) error {
	if p.state != StateAwaiting {
		return ErrResolved
	}
	applied, err := p.apply(v)
	if !applied {
		p.finishCancelled()
		return err
	}
	p.state = StateApplied
	return err
}

// Cancel ends the action without change.
func (p *Pending[T]) Cancel() error {
	if p.state != StateAwaiting {
		return ErrResolved
	}
	p.finishCancelled()
	return nil
}

func (p *Pending[T]) finishCancelled() {
	p.state = StateCancelled
	if p.cancel != nil {
		p.cancel()
	}
}
