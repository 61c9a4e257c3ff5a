package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrConflict, "taxonID 42 loaded twice")

	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "taxonID 42")
}

func TestNewInvalidInputError(t *testing.T) {
	err := NewInvalidInputError("unknown rank %q", "supergenus")

	assert.True(t, Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), `unknown rank "supergenus"`)
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(New("other")))
	assert.True(t, IsNotFoundError(NewNotFoundError("node %d", 7)))
	assert.True(t, IsNotFoundError(Wrap(ErrNotFound, "run abc")))
}

func TestIsCancelled(t *testing.T) {
	err := Wrap(CombineErrors(ErrCancelled, context.Canceled), "classification pass")

	assert.True(t, IsCancelled(err))
	assert.True(t, Is(err, ErrCancelled))
	assert.False(t, IsCancelled(nil))
	assert.False(t, IsCancelled(ErrNormalizationFailed))
}

func TestHintsSurviveWrapping(t *testing.T) {
	err := WithHint(ErrIncompatibleStore, "re-import the checklist")
	err = Wrap(err, "open store")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "re-import the checklist", hints[0])
	assert.True(t, Is(err, ErrIncompatibleStore))
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
}

func TestStackTrace(t *testing.T) {
	detailed := fmt.Sprintf("%+v", New("with stack"))
	assert.Contains(t, detailed, "errors_test.go")
}

func ExampleWrap() {
	err := Wrap(ErrNotFound, "accepted name Abies alba")
	fmt.Println(err)
	// Output: accepted name Abies alba: not found
}
