package screen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/screen/internal/unwind"
	"github.com/BeatGlow/screen/pixel"
)

// partialCandidate acquires a resource, then fails and unwinds it.
func partialCandidate(name string, released *bool) Candidate {
	return Candidate{
		Name: name,
		Open: func() (_ Backend, err error) {
			var stack unwind.Stack
			defer stack.OnError(&err)
			stack.Push(func() error { *released = true; return nil })
			return nil, errors.New(name + ": no display connected")
		},
	}
}

func TestSelectFallsBackToThird(t *testing.T) {
	var (
		firstReleased, secondReleased bool
		third                         = newMockBackend(320, 480, pixel.FormatRGB565)
	)
	third.name = "third"

	s, err := Open(
		partialCandidate("first", &firstReleased),
		partialCandidate("second", &secondReleased),
		Candidate{Name: "third", Open: func() (Backend, error) { return third, nil }},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.True(t, firstReleased)
	assert.True(t, secondReleased)
	assert.Equal(t, Backend(third), s.Backend())
	assert.Equal(t, 320, s.Width())
}

func TestSelectStopsAtFirstSuccess(t *testing.T) {
	var (
		first  = newMockBackend(10, 10, pixel.FormatRGB565)
		called bool
	)
	b, err := Select(
		mockCandidate(first, nil),
		Candidate{Name: "second", Open: func() (Backend, error) { called = true; return nil, nil }},
	)
	require.NoError(t, err)
	assert.Equal(t, Backend(first), b)
	assert.False(t, called)
}

func TestSelectRejectsInvalidGeometry(t *testing.T) {
	var (
		broken = newMockBackend(0, 0, pixel.FormatRGB565)
		good   = newMockBackend(10, 10, pixel.FormatRGB565)
	)
	b, err := Select(mockCandidate(broken, nil), mockCandidate(good, nil))
	require.NoError(t, err)
	assert.Equal(t, Backend(good), b)
	assert.Equal(t, 1, broken.closes)
}

func TestSelectAllFail(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	_, err := Select(mockCandidate(nil, errA), Candidate{Name: "nil"}, mockCandidate(nil, errB))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	_, err = Open()
	assert.ErrorIs(t, err, ErrNoBackend)
}
