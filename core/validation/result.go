package validation

import "sort"

// Result is the immutable outcome of validating a command. It carries a
// per-field list of error messages in a stable field order. The zero value
// is a valid result.
//
// All mutating-looking operations (AddError, Merge) return a new Result;
// the receiver is never altered, so results can be shared across merge
// chains without aliasing surprises.
type Result struct {
	fields []string
	errors map[string][]string
}

// Valid returns a result with no errors.
func Valid() Result {
	return Result{}
}

// Invalid returns a result carrying the given field errors. Fields with
// empty message lists are dropped; if nothing remains the result is valid.
// Field order is sorted by name for determinism, since Go map iteration
// order is random.
func Invalid(errs map[string][]string) Result {
	fields := make([]string, 0, len(errs))
	for field, msgs := range errs {
		if len(msgs) > 0 {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return Result{}
	}
	sort.Strings(fields)

	m := make(map[string][]string, len(fields))
	for _, field := range fields {
		m[field] = append([]string(nil), errs[field]...)
	}
	return Result{fields: fields, errors: m}
}

// WithError returns an invalid result with a single field error.
func WithError(field, message string) Result {
	return Result{
		fields: []string{field},
		errors: map[string][]string{field: {message}},
	}
}

// IsValid reports whether the result carries no errors.
func (r Result) IsValid() bool {
	return len(r.fields) == 0
}

// IsInvalid reports whether the result carries at least one error.
func (r Result) IsInvalid() bool {
	return !r.IsValid()
}

// Fields returns the fields that have errors, in result order.
func (r Result) Fields() []string {
	return append([]string(nil), r.fields...)
}

// ErrorsFor returns the messages recorded for a field, in order.
// It returns nil when the field has no errors.
func (r Result) ErrorsFor(field string) []string {
	msgs, ok := r.errors[field]
	if !ok {
		return nil
	}
	return append([]string(nil), msgs...)
}

// AllMessages returns every message flattened, field order first, then
// message order within each field.
func (r Result) AllMessages() []string {
	var all []string
	for _, field := range r.fields {
		all = append(all, r.errors[field]...)
	}
	return all
}

// FirstError returns the first message of the first field that has one.
// The second return value is false for a valid result.
func (r Result) FirstError() (string, bool) {
	for _, field := range r.fields {
		if msgs := r.errors[field]; len(msgs) > 0 {
			return msgs[0], true
		}
	}
	return "", false
}

// AddError returns a new result with the message appended to the field's
// list, creating the field if absent. The returned result is always invalid.
func (r Result) AddError(field, message string) Result {
	out := r.clone()
	if _, ok := out.errors[field]; !ok {
		out.fields = append(out.fields, field)
	}
	out.errors[field] = append(out.errors[field], message)
	return out
}

// Merge combines two results. If both are valid the merged result is valid.
// Otherwise the error maps are unioned: fields keep the receiver's order
// first, then any fields only present in other; message lists for shared
// fields concatenate receiver's messages then other's.
func (r Result) Merge(other Result) Result {
	if r.IsValid() && other.IsValid() {
		return Valid()
	}

	out := r.clone()
	for _, field := range other.fields {
		if _, ok := out.errors[field]; !ok {
			out.fields = append(out.fields, field)
		}
		out.errors[field] = append(out.errors[field], other.errors[field]...)
	}
	return out
}

// clone deep-copies the result so appends never reach the original.
func (r Result) clone() Result {
	out := Result{
		fields: append([]string(nil), r.fields...),
		errors: make(map[string][]string, len(r.errors)),
	}
	for field, msgs := range r.errors {
		out.errors[field] = append([]string(nil), msgs...)
	}
	return out
}
