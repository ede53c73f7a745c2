package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypePredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidation("bad input")))
	assert.True(t, IsNotFound(NewNotFound("gone")))
	assert.True(t, IsTransient(NewTransient("try later", nil)))
	assert.True(t, IsInternal(NewInternal("boom", nil)))

	plain := stderrors.New("plain")
	assert.False(t, IsValidation(plain))
	assert.False(t, IsNotFound(plain))
	assert.False(t, IsTransient(plain))
	assert.False(t, IsInternal(plain))
	assert.False(t, IsNotFound(nil))
}

func TestWrapPreservesType(t *testing.T) {
	err := NewNotFound("node not found")
	wrapped := Wrap(err, "loading graph")

	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "loading graph")
	assert.Contains(t, wrapped.Error(), "node not found")
}

func TestWrapForeignErrorBecomesInternal(t *testing.T) {
	cause := stderrors.New("dial tcp: timeout")
	wrapped := Wrap(cause, "querying store")

	assert.True(t, IsInternal(wrapped))
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "edge already exists", Message(NewValidation("edge already exists")))

	// The wrapped cause stays out of the user-facing message.
	withCause := NewTransient("storage temporarily unavailable", stderrors.New("breaker open"))
	assert.Equal(t, "storage temporarily unavailable", Message(withCause))
	assert.Contains(t, withCause.Error(), "breaker open")

	assert.Equal(t, "plain", Message(stderrors.New("plain")))
}
