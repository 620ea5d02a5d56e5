package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrFinishRunCommandIsNotConstructed = errors.New(
	"FinishRunCommand must be created via NewFinishRunCommand constructor",
)

type FinishRunCommand struct {
	runID kernel.UUID
	actor kernel.Identity

	guard guard.ConstructorGuard
}

func NewFinishRunCommand(runID kernel.UUID, actor kernel.Identity) (FinishRunCommand, error) {
	if actor.IsZero() {
		return FinishRunCommand{}, errs.ErrAuthRequired
	}
	if err := runID.Validate(); err != nil {
		return FinishRunCommand{}, err
	}
	return FinishRunCommand{runID: runID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c FinishRunCommand) RunID() kernel.UUID     { return c.runID }
func (c FinishRunCommand) Actor() kernel.Identity { return c.actor }

func (c FinishRunCommand) Validate() error {
	return c.guard.Validate(ErrFinishRunCommandIsNotConstructed)
}
