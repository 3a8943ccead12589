package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindDerivedFromCode(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusForbidden, KindBusinessRule},
		{http.StatusServiceUnavailable, KindDependency},
		{http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").Kind)
		})
	}
}

func TestKindOfFollowsWrapping(t *testing.T) {
	base := Conflict("slot taken")
	wrapped := fmt.Errorf("create: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Dependency(cause, "storage unavailable")

	assert.Equal(t, http.StatusServiceUnavailable, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage unavailable", err.Error())
}
