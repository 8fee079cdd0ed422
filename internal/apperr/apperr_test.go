package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing %q", "x")))
	assert.Equal(t, KindPermissionDenied, KindOf(PermissionDenied("nope")))
	assert.Equal(t, KindConflict, KindOf(Conflict("collision")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading prompt: %w", NotFound("prompt %q not found", "welcome"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestMessageFormatting(t *testing.T) {
	err := NotFound("prompt %q version %d not found", "welcome", 3)
	assert.Equal(t, `prompt "welcome" version 3 not found`, err.Error())
}
