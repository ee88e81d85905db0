package widgets

// State is the render state of one widget. Loading, empty and error are
// distinct so a pending fetch never looks like an empty result.
type State string

const (
	StateLoading      State = "loading"
	StateEmpty        State = "empty"
	StateRendered     State = "rendered"
	StateError        State = "error"
	StateUnconfigured State = "unconfigured"
	StateUnsupported  State = "unsupported"
)

// Output is what a widget hands to the presentation layer.
type Output struct {
	InstanceID string `json:"instanceId"`
	Type       string `json:"type"`
	State      State  `json:"state"`
	Title      string `json:"title,omitempty"`
	// Data is the type specific view model, set only when State is rendered.
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Loading builds the placeholder output for a widget whose data is pending.
func Loading(inst Instance) Output {
	return Output{InstanceID: inst.ID, Type: inst.Type, State: StateLoading}
}

// Empty builds a configured-but-empty output.
func Empty(inst Instance, message string) Output {
	return Output{InstanceID: inst.ID, Type: inst.Type, State: StateEmpty, Message: message}
}

// Rendered builds a successful output.
func Rendered(inst Instance, title string, data any) Output {
	return Output{InstanceID: inst.ID, Type: inst.Type, State: StateRendered, Title: title, Data: data}
}

// Failed builds an error output.
func Failed(inst Instance, err error) Output {
	msg := "This widget is currently unavailable."
	return Output{InstanceID: inst.ID, Type: inst.Type, State: StateError, Message: msg, Err: err}
}

// Unconfigured builds the "please configure" output.
func Unconfigured(inst Instance, message string) Output {
	if message == "" {
		message = "Please configure this widget."
	}
	return Output{InstanceID: inst.ID, Type: inst.Type, State: StateUnconfigured, Message: message}
}

// Unsupported builds the output for an unknown widget type.
func Unsupported(inst Instance) Output {
	return Output{
		InstanceID: inst.ID,
		Type:       inst.Type,
		State:      StateUnsupported,
		Message:    "Unsupported widget type: " + inst.Type,
	}
}

// Settled reports whether the output is final (not loading).
func (o Output) Settled() bool { return o.State != StateLoading }
