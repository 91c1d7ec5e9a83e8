package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(Validation("bad")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(Conflict("dup")))
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("gone")))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(Auth("nope")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(Internal("boom", nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestStatusOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("gone"))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "bad input", MessageOf(Validation("bad input")))
	assert.Equal(t, "no session", MessageOf(Auth("no session")))

	// 5xx and unknown errors never leak their detail.
	assert.Equal(t, "internal server error", MessageOf(Internal("db exploded", errors.New("pq: fatal"))))
	assert.Equal(t, "internal server error", MessageOf(errors.New("secret detail")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal("wrapped", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root cause")
}
