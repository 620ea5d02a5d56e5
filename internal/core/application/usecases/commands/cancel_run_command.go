package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCancelRunCommandIsNotConstructed = errors.New(
	"CancelRunCommand must be created via NewCancelRunCommand constructor",
)

type CancelRunCommand struct {
	runID  kernel.UUID
	actor  kernel.Identity
	reason string

	guard guard.ConstructorGuard
}

func NewCancelRunCommand(runID kernel.UUID, actor kernel.Identity, reason string) (CancelRunCommand, error) {
	if actor.IsZero() {
		return CancelRunCommand{}, errs.ErrAuthRequired
	}
	var reasonErr error
	if strings.TrimSpace(reason) == "" {
		reasonErr = errs.NewValueIsRequiredError("reason")
	}
	if err := errors.Join(runID.Validate(), reasonErr); err != nil {
		return CancelRunCommand{}, err
	}
	return CancelRunCommand{
		runID:  runID,
		actor:  actor,
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c CancelRunCommand) RunID() kernel.UUID     { return c.runID }
func (c CancelRunCommand) Actor() kernel.Identity { return c.actor }
func (c CancelRunCommand) Reason() string         { return c.reason }

func (c CancelRunCommand) Validate() error {
	return c.guard.Validate(ErrCancelRunCommandIsNotConstructed)
}
