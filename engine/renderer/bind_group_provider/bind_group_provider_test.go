package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutsAreCachedPerDevice(t *testing.T) {
	dev := gputest.NewDevice()
	defer Forget(dev)

	a, err := For(dev)
	require.NoError(t, err)
	b, err := For(dev)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Len(t, dev.Layouts, 5)

	other := gputest.NewDevice()
	defer Forget(other)
	c := MustFor(other)
	assert.NotSame(t, a, c)
}

func TestInitAllocatesBuffersByBindingType(t *testing.T) {
	dev := gputest.NewDevice()
	defer Forget(dev)
	l := MustFor(dev)

	view := &gputest.Texture{}
	tv, _ := view.CreateView()
	sampler, _ := dev.CreateSampler(gpu.SamplerDescriptor{})

	p := NewBindGroupProvider("lights",
		WithBufferSize(1, 4*LightRecordSize),
		WithTextureView(2, tv),
		WithSampler(3, sampler),
	)
	require.False(t, p.Initialized())
	require.NoError(t, p.Init(dev, l.Light, LightEntries))
	require.True(t, p.Initialized())

	count := p.Buffer(0).(*gputest.Buffer)
	records := p.Buffer(1).(*gputest.Buffer)
	slots := p.Buffer(4).(*gputest.Buffer)

	assert.True(t, count.Desc.Usage.Has(gpu.BufferUsageUniform))
	assert.Equal(t, uint64(LightCountSize), count.Size())
	assert.True(t, records.Desc.Usage.Has(gpu.BufferUsageStorage))
	assert.Equal(t, uint64(4*LightRecordSize), records.Size())
	assert.Equal(t, uint64(ShadowIndexSize), slots.Size())

	bg := p.BindGroup().(*gputest.BindGroup)
	assert.Len(t, bg.Desc.Entries, 5)
	assert.Same(t, l.Light, p.BindGroupLayout())

	// a second Init is a no-op
	require.NoError(t, p.Init(dev, l.Light, LightEntries))
	assert.Len(t, dev.BindGroups, 1)
}

func TestInitRequiresSuppliedTextures(t *testing.T) {
	dev := gputest.NewDevice()
	defer Forget(dev)

	p := NewBindGroupProvider("image")
	err := p.Init(dev, MustFor(dev).Image, ImageEntries)
	assert.Error(t, err)
	assert.False(t, p.Initialized())
}

func TestInitPropagatesDeviceFailure(t *testing.T) {
	dev := gputest.NewDevice()
	defer Forget(dev)
	l := MustFor(dev)

	dev.FailCreate()
	p := NewBindGroupProvider("transform")
	err := p.Init(dev, l.Transform, TransformEntries)
	assert.ErrorIs(t, err, gputest.ErrInjected)
}

func TestWriteAndRelease(t *testing.T) {
	dev := gputest.NewDevice()
	defer Forget(dev)
	l := MustFor(dev)

	external, err := dev.CreateBuffer(gpu.BufferDescriptor{Label: "shared", Size: 16, Usage: gpu.BufferUsageUniform})
	require.NoError(t, err)

	p := NewBindGroupProvider("view", WithBuffer(1, external))
	require.NoError(t, p.Init(dev, l.View, ViewEntries))

	require.NoError(t, Flush(dev.Queue(),
		BufferWrite{Provider: p, Binding: 0, Data: []byte{1, 2, 3, 4}},
		BufferWrite{Provider: p, Binding: 1, Data: []byte{5}},
	))
	assert.Equal(t, 2, dev.RecordingQueue().WriteCount())
	assert.Error(t, p.Write(dev.Queue(), 7, 0, []byte{0}))

	owned := p.Buffer(0).(*gputest.Buffer)
	bg := p.BindGroup().(*gputest.BindGroup)
	p.Release()

	assert.True(t, owned.Released)
	assert.True(t, bg.Released)
	assert.False(t, external.(*gputest.Buffer).Released, "externally supplied buffers stay alive")
	assert.False(t, p.Initialized())
}
