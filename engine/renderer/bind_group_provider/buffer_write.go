package bind_group_provider

import "github.com/Carmen-Shannon/oxy-scene/engine/gpu"

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Flush applies writes in order and stops at the first binding that has no buffer.
//
// Parameters:
//   - queue: the queue to write through
//   - writes: the writes to apply
//
// Returns:
//   - error: the first failed write
func Flush(queue gpu.Queue, writes ...BufferWrite) error {
	for _, w := range writes {
		if err := w.Provider.Write(queue, w.Binding, w.Offset, w.Data); err != nil {
			return err
		}
	}
	return nil
}
