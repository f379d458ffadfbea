package extension

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type host struct {
	ext   Host[*host]
	hooks Hooks[*[]string]
}

func (h *host) mount(log *[]string) error {
	return h.hooks.Run("mount", log, func() error {
		*log = append(*log, "body")
		return nil
	})
}

type recorder struct {
	name string
}

func (r *recorder) Init(h *host) {
	h.hooks.Pre("mount", func(log *[]string) { *log = append(*log, r.name+".pre") })
	h.hooks.After("mount", func(log *[]string) { *log = append(*log, r.name+".after") })
}

func TestHooksRunInRegistrationOrder(t *testing.T) {
	h := &host{}
	a, b := &recorder{name: "a"}, &recorder{name: "b"}
	h.ext.Add(h, a)
	h.ext.Add(h, b)

	var log []string
	assert.NoError(t, h.mount(&log))
	assert.Equal(t, []string{"a.pre", "b.pre", "body", "a.after", "b.after"}, log)
}

func TestAddIsIdempotent(t *testing.T) {
	h := &host{}
	a := &recorder{name: "a"}
	h.ext.Add(h, a)
	h.ext.Add(h, a)

	pre, after := h.hooks.Count("mount")
	assert.Equal(t, 1, pre)
	assert.Equal(t, 1, after)
	assert.Len(t, h.ext.Extensions(), 1)
}

func TestRunForwardsBodyError(t *testing.T) {
	var hooks Hooks[int]
	ran := false
	hooks.After("render", func(int) { ran = true })

	boom := errors.New("boom")
	err := hooks.Run("render", 0, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, ran, "after hooks still run when the body fails")
}

type other struct{}

func (other) Init(*host) {}

func TestFind(t *testing.T) {
	h := &host{}
	h.ext.Add(h, &recorder{name: "a"})

	r, ok := Find[*recorder](&h.ext)
	assert.True(t, ok)
	assert.Equal(t, "a", r.name)

	_, ok = Find[other](&h.ext)
	assert.False(t, ok)

	assert.Equal(t, "extension.recorder", Name(r))
}

// tagged is a value extension that cannot be compared with ==.
type tagged struct {
	tags []string
}

func (tagged) Init(*host) {}

func TestAddAcceptsNonComparableValues(t *testing.T) {
	h := &host{}
	assert.NotPanics(t, func() {
		h.ext.Add(h, tagged{tags: []string{"a"}})
		h.ext.Add(h, tagged{tags: []string{"a"}})
	})
	assert.Len(t, h.ext.Extensions(), 2)

	h.ext.Add(h, other{})
	h.ext.Add(h, other{})
	assert.Len(t, h.ext.Extensions(), 3, "comparable values are still deduplicated")
}
