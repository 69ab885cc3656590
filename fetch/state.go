package fetch

// State is what a hook publishes to its consumers.
//
// Loading is true from the moment a request is dispatched until its outcome
// is recorded. A new request clears Error but keeps the last Response and
// Data visible until it settles.
type State[T any] struct {
	Loading  bool
	Response *Response
	// Data is Response's body decoded into T.
	Data  T
	Error error
}

// ActionType tags an Action.
type ActionType int

const (
	ActionStart ActionType = iota
	ActionEnd
)

// Action drives Reduce. An End action carries either Err or Response/Data.
type Action[T any] struct {
	Type     ActionType
	Response *Response
	Data     T
	Err      error
}

// Start returns the action dispatched when a request is issued.
func Start[T any]() Action[T] {
	return Action[T]{Type: ActionStart}
}

// Success returns the End action for a settled response.
func Success[T any](resp *Response, data T) Action[T] {
	return Action[T]{Type: ActionEnd, Response: resp, Data: data}
}

// Failure returns the End action for a failed request.
func Failure[T any](err error) Action[T] {
	return Action[T]{Type: ActionEnd, Err: err}
}

// Reduce is the lifecycle state machine. It has no side effects.
func Reduce[T any](s State[T], a Action[T]) State[T] {
	switch a.Type {
	case ActionStart:
		s.Loading = true
		s.Error = nil
	case ActionEnd:
		s.Loading = false
		if a.Err != nil {
			s.Error = a.Err
		} else {
			s.Response = a.Response
			s.Data = a.Data
		}
	}
	return s
}
