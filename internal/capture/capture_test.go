package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsWhileActive(t *testing.T) {
	w := NewWindow(256, time.Minute)
	defer w.Cancel()

	id, err := w.Open()
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.True(t, w.Active())

	_, err = w.Open()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestCaptureCollectsLinesInOrder(t *testing.T) {
	w := NewWindow(256, time.Minute)
	defer w.Cancel()

	id, err := w.Open()
	require.NoError(t, err)

	w.Observe("first")
	w.Observe("second")

	text, ok := w.Close(id)
	require.True(t, ok)
	assert.Equal(t, "first\nsecond\n", text)
	assert.False(t, w.Active())
}

func TestCloseWithNoOutputReturnsEmpty(t *testing.T) {
	w := NewWindow(256, time.Minute)
	defer w.Cancel()

	id, err := w.Open()
	require.NoError(t, err)

	text, ok := w.Close(id)
	require.True(t, ok)
	assert.Equal(t, "", text)
}

func TestObserveIgnoredWhileInactive(t *testing.T) {
	w := NewWindow(256, time.Minute)
	w.Observe("dropped")

	id, err := w.Open()
	require.NoError(t, err)
	text, ok := w.Close(id)
	require.True(t, ok)
	assert.Equal(t, "", text)
}

func TestCloseStaleIDIgnored(t *testing.T) {
	w := NewWindow(256, time.Minute)
	defer w.Cancel()

	id, err := w.Open()
	require.NoError(t, err)

	_, ok := w.Close("not-the-id")
	assert.False(t, ok)
	assert.True(t, w.Active())

	_, ok = w.Close(id)
	assert.True(t, ok)

	// Closing twice with the same id is also stale.
	_, ok = w.Close(id)
	assert.False(t, ok)
}

func TestTimerFiresExactlyOnce(t *testing.T) {
	w := NewWindow(256, 10*time.Millisecond)

	fired := make(chan string, 4)
	w.SetElapsedHandler(func(id string) {
		fired <- id
	})

	id, err := w.Open()
	require.NoError(t, err)

	select {
	case got := <-fired:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	select {
	case <-fired:
		t.Fatal("timer fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReuseAfterClose(t *testing.T) {
	w := NewWindow(256, time.Minute)
	defer w.Cancel()

	id1, err := w.Open()
	require.NoError(t, err)
	w.Observe("old")
	_, ok := w.Close(id1)
	require.True(t, ok)

	id2, err := w.Open()
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	w.Observe("new")
	text, ok := w.Close(id2)
	require.True(t, ok)
	assert.Equal(t, "new\n", text)
}
