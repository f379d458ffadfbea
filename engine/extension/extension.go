// Package extension lets feature modules observe and augment lifecycle events of a host object without the host
// knowing about them.
//
// A host owns a Hooks value per context type and wraps the body of each extensible method in Run. Extensions
// register pre and after hooks from their Init. Hooks run in registration order: every pre hook, then the body,
// then every after hook.
package extension

import "reflect"

// Event names an extensible method of a host.
type Event string

// Hook observes one event. ctx carries the arguments of the wrapped call.
type Hook[C any] func(ctx C)

// Hooks stores the ordered pre and after hooks of one host.
type Hooks[C any] struct {
	pre   map[Event][]Hook[C]
	after map[Event][]Hook[C]
}

// Pre registers fn to run before the body of ev.
//
// Parameters:
//   - ev: the event to hook
//   - fn: the hook
func (h *Hooks[C]) Pre(ev Event, fn Hook[C]) {
	if h.pre == nil {
		h.pre = make(map[Event][]Hook[C])
	}
	h.pre[ev] = append(h.pre[ev], fn)
}

// After registers fn to run after the body of ev.
//
// Parameters:
//   - ev: the event to hook
//   - fn: the hook
func (h *Hooks[C]) After(ev Event, fn Hook[C]) {
	if h.after == nil {
		h.after = make(map[Event][]Hook[C])
	}
	h.after[ev] = append(h.after[ev], fn)
}

// RunPre runs the pre hooks of ev.
func (h *Hooks[C]) RunPre(ev Event, ctx C) {
	for _, fn := range h.pre[ev] {
		fn(ctx)
	}
}

// RunAfter runs the after hooks of ev.
func (h *Hooks[C]) RunAfter(ev Event, ctx C) {
	for _, fn := range h.after[ev] {
		fn(ctx)
	}
}

// Run runs the pre hooks, body and after hooks of ev. The error of body is returned after the after hooks ran.
//
// Parameters:
//   - ev: the event being run
//   - ctx: the call context handed to every hook
//   - body: the host's own implementation
//
// Returns:
//   - error: the error returned by body
func (h *Hooks[C]) Run(ev Event, ctx C, body func() error) error {
	h.RunPre(ev, ctx)
	err := body()
	h.RunAfter(ev, ctx)
	return err
}

// Count returns how many hooks are registered for ev.
func (h *Hooks[C]) Count(ev Event) (pre, after int) {
	return len(h.pre[ev]), len(h.after[ev])
}

// Extension is a feature module attached to a host of type H.
type Extension[H any] interface {
	// Init is called once when the extension is added to host. Extensions register their hooks here.
	//
	// Parameters:
	//   - host: the host the extension was added to
	Init(host H)
}

// Host records the extensions added to one host object.
type Host[H any] struct {
	extensions []Extension[H]
}

// Add records ext and initialises it against host. Adding the same extension twice is a no-op. Extensions
// whose dynamic type is not comparable, such as structs holding slices, are never considered the same.
//
// Parameters:
//   - host: the host object, passed to Init
//   - ext: the extension to add
func (h *Host[H]) Add(host H, ext Extension[H]) {
	for _, e := range h.extensions {
		if same(e, ext) {
			return
		}
	}
	h.extensions = append(h.extensions, ext)
	ext.Init(host)
}

// Extensions returns the added extensions in insertion order.
func (h *Host[H]) Extensions() []Extension[H] {
	return h.extensions
}

// Find returns the first extension of host whose dynamic type is E.
//
// Returns:
//   - E: the extension
//   - bool: false when no extension of that type was added
func Find[E any, H any](host *Host[H]) (E, bool) {
	for _, ext := range host.extensions {
		if e, ok := ext.(E); ok {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// same compares two extensions without panicking on non-comparable dynamic types.
func same(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

// Name returns the type name of ext for logging.
func Name(ext any) string {
	t := reflect.TypeOf(ext)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
