package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/sauce-e2e/cmd"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 130, exitCode(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(fmt.Errorf("%w: godog exited with status 1", cmd.ErrSuiteFailed)))
	assert.Equal(t, 2, exitCode(errors.New("invalid configuration")))
}
