package app

import (
	"fmt"

	"previewhub/internal/hub"
	"previewhub/internal/model"
)

// Operation tracks the CLI command being run. It is recorded in the history
// when the app starts and stamped with its final status on Close.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string
}

// NewOperation creates an operation that has not been recorded yet.
func NewOperation(name, parameters string) *Operation {
	return &Operation{
		Name:       name,
		Parameters: parameters,
		Status:     model.OperationSuccess,
	}
}

// Recorded returns true if this operation has been saved to the history.
func (op *Operation) Recorded() bool {
	return op.ID != ""
}

// Observe marks the operation failed when err is non-nil and returns err unchanged.
func (op *Operation) Observe(err error) error {
	if err != nil {
		op.Status = model.OperationError
	}
	return err
}

func (op *Operation) record(h hub.History) error {
	if op.Recorded() {
		return nil
	}
	rec, err := h.StartOperation(op.Name, op.Parameters)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	op.ID = rec.ID
	return nil
}

func (op *Operation) finish(h hub.History) error {
	if !op.Recorded() {
		return nil
	}
	if err := h.FinishOperation(op.ID, op.Status); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}
