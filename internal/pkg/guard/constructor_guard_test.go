package guard_test

import (
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstructorGuard(t *testing.T) {
	t.Run("creates_properly_constructed_guard", func(t *testing.T) {
		// When
		guard := guard.NewConstructorGuard()

		// Then
		assert.NotNil(t, guard)

		// Test with custom error
		customError := errors.New("test object not constructed")
		require.NoError(t, guard.Validate(customError))

		// Test with nil error (should use default)
		require.NoError(t, guard.Validate(nil))
	})
}

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("properly_constructed_guard_returns_nil", func(t *testing.T) {
		// Given
		guard := guard.NewConstructorGuard()
		customError := errors.New("not constructed")

		// When
		err := guard.Validate(customError)

		// Then
		require.NoError(t, err)
	})

	t.Run("zero_value_guard_returns_custom_error", func(t *testing.T) {
		// Given
		var guard guard.ConstructorGuard // zero value
		expectedError := errors.New("entity not constructed")

		// When
		err := guard.Validate(expectedError)

		// Then
		require.Error(t, err)
		assert.Equal(t, expectedError, err)
	})

	t.Run("zero_value_guard_returns_default_error_when_nil", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard // zero value

		// When
		err := g.Validate(nil)

		// Then
		require.Error(t, err)
		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
	})
}

func TestConstructorGuard_DispatchCommands(t *testing.T) {
	actor, err := kernel.NewStructuredIdentity("u-1", "Uma")
	require.NoError(t, err)

	t.Run("transition_order", func(t *testing.T) {
		built, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), order.Issue, actor, "box crushed")
		require.NoError(t, err)
		require.NoError(t, built.Validate())

		var zero commands.TransitionOrderCommand
		require.ErrorIs(t, zero.Validate(), commands.ErrTransitionOrderCommandIsNotConstructed)
	})

	t.Run("finish_run", func(t *testing.T) {
		built, err := commands.NewFinishRunCommand(kernel.NewUUID(), actor)
		require.NoError(t, err)
		require.NoError(t, built.Validate())

		var zero commands.FinishRunCommand
		require.ErrorIs(t, zero.Validate(), commands.ErrFinishRunCommandIsNotConstructed)
	})
}
