package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeBackendQueueAndAdvance(t *testing.T) {
	b := NewFakeBackend()
	src, err := b.NewSource()
	require.NoError(t, err)

	buf, err := b.NewBuffer()
	require.NoError(t, err)
	require.NoError(t, b.Upload(buf, make([]byte, 16), 16, 2, 44100)) // 4 frames stereo 16-bit

	require.NoError(t, b.QueueBuffers(src, []BufferHandle{buf}))
	require.NoError(t, b.Play(src))

	state, err := b.State(src)
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, state)

	b.AdvanceAll(4)

	processed, err := b.UnqueueBuffers(src)
	require.NoError(t, err)
	assert.Equal(t, []BufferHandle{buf}, processed)
}

func TestFakeBackendProperties(t *testing.T) {
	b := NewFakeBackend()
	src, err := b.NewSource()
	require.NoError(t, err)

	require.NoError(t, b.SetProperty(src, PropertyGain, 0.5))
	v, err := b.GetProperty(src, PropertyGain)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, v)

	require.NoError(t, b.SetProperty(src, PropertyPosition, 1, 2, 3))
	pos, err := b.GetProperty(src, PropertyPosition)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, pos)
}
