package mock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/wvr/capture"
	"pipelined.dev/wvr/internal/mock"
)

func TestClip(t *testing.T) {
	c := mock.NewClip(3, 24)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 24.0, c.FPS())
	b, err := c.Frame(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), b.RGBAAt(0, 0).R)
	assert.Equal(t, 1, c.Calls())

	c.ErrorOnCall = errors.New("decode")
	_, err = c.Frame(0)
	assert.Error(t, err)
	require.NoError(t, c.Close())
	assert.True(t, c.Closed)
}

func TestFeed(t *testing.T) {
	f := mock.NewFeed[[]byte]()
	go f.Send(mock.ControlChange(1, 16, 64))
	v, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xB1, 16, 64}, v)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.False(t, f.Send(nil))
	_, err = f.Read()
	assert.True(t, errors.Is(err, mock.ErrClosed))
}

func TestWriter(t *testing.T) {
	w := &mock.Writer{}
	require.NoError(t, w.Write(capture.Frame{Index: 3, PTS: 0.1}))
	require.NoError(t, w.Flush())
	assert.Equal(t, []int64{3}, w.Written())
	assert.Equal(t, []float64{0.1}, w.PTS)
	assert.True(t, w.Flushed)
}
