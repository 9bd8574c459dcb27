// Package validation provides the immutable validation outcome value and
// the per-command validator registry consumed by the command bus.
//
// A Result carries a per-field list of error messages in a stable field
// order. Results are values: AddError and Merge return new results and
// never mutate the receiver, so a result can be shared across merge chains
// safely.
//
//	result := validation.Valid()
//	if cmd.Amount <= 0 {
//	    result = result.AddError("amount", "must be positive")
//	}
//	if cmd.Currency == "" {
//	    result = result.AddError("currency", "is required")
//	}
//	return result
//
// Validators are registered per command type; a command with no registered
// validator is trivially valid. A second registration for the same type
// replaces the first, mirroring bus handler registration policy.
//
//	validators := validation.NewRegistry()
//	validators.Register(validation.NewValidator(validateCreatePayment))
//	result := validators.Validate(ctx, cmd)
package validation
