// Package errors defines the error taxonomy of the remapping engine.
//
// Three kinds of failure are distinguished:
//
//   - SchemaError: a required column or field is absent. It aborts the
//     processing of the affected dataset only.
//   - DataIntegrityError: the input is readable but breaks an invariant,
//     most importantly correspondence shares that do not sum to one for an
//     old code. It carries the offending codes.
//   - ValidationMismatch: the cross-validation diagnostic. It is reported,
//     never used to abort processing.
//
// Use the predicates (IsSchema, IsDataIntegrity, IsValidationMismatch) rather
// than type assertions so wrapped errors are recognised.
package errors
