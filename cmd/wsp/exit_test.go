package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeError_Error(t *testing.T) {
	withMessage := NewExitCodeError(1, "boom")
	assert.Equal(t, "boom", withMessage.Error())

	withoutMessage := NewExitCodeError(130, "")
	assert.Equal(t, "exit code 130", withoutMessage.Error())
}

func TestAsExitCodeError(t *testing.T) {
	target := NewExitCodeError(2, "failure")

	wrapped := errors.Join(errors.New("context"), target)

	var found *ExitCodeError
	require := asExitCodeError(wrapped, &found)

	assert.True(t, require)
	assert.Equal(t, 2, found.Code)

	var missing *ExitCodeError
	assert.False(t, asExitCodeError(errors.New("plain"), &missing))
}
