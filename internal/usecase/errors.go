package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/reconcile"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/validation"
)

// storeError translates a relation store failure. Typed errors pass through,
// a missing row becomes NotFound with notFoundMsg, everything else is a
// persistence failure.
func storeError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NotFound(notFoundMsg)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.Persistence(err)
}

// reconcileError translates a reconciler failure on one collection item.
func reconcileError(err error) error {
	var itemErr *reconcile.ItemError
	if !errors.As(err, &itemErr) {
		return apperror.Internal(err)
	}
	if errors.Is(itemErr, reconcile.ErrUnknownID) {
		return apperror.NotFound(fmt.Sprintf("%s[%d]: entry does not exist", itemErr.Collection, itemErr.Index))
	}
	return apperror.Validation(itemErr.Error(), itemErr)
}

// validationMessage flattens validator output into one sentence.
func validationMessage(err error) string {
	msgs := validation.FormatValidationErrors(err)
	if len(msgs) == 0 {
		return err.Error()
	}
	return strings.Join(msgs, "; ")
}
