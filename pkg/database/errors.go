package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful
// messages. Errors it cannot map pass through unchanged.
func MapPQError(err error) error {
	if err == nil {
		return nil
	}

	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return err
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "unit_type_valid"):
		return errors.Validation(map[string]string{
			"unit_type": "must be one of: full, partial",
		})

	case strings.Contains(constraint, "return_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: draft, ready_to_ship, in_transit, processing, completed, cancelled",
		})

	case strings.Contains(constraint, "condition_valid"):
		return errors.Validation(map[string]string{
			"condition": "must be one of: UNOPENED, OPENED, DAMAGED",
		})

	case strings.Contains(constraint, "quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than 0",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	// Partial unique index on (pharmacy_id, distributor_id) WHERE NOT delivered.
	// This is what turns the duplicate-package race into a clean 409.
	case strings.Contains(constraint, "custom_packages_open"):
		return "an open package for this distributor already exists"
	case strings.Contains(constraint, "package_number"):
		return "a package with this number already exists"
	case strings.Contains(constraint, "products_ndc"):
		return "a product with this NDC already exists"
	case strings.Contains(constraint, "email"):
		return "an account with this email already exists"
	default:
		return "a record with these values already exists"
	}
}
