package validation

// ReceiptValidationResult contains the outcome of settlement receipt
// validation. Call IsValid to check overall status.
type ReceiptValidationResult struct {
	SignatureValid    bool
	PayloadValid      bool
	OutcomeValid      bool
	CommitmentValid   bool
	ValidationDetails []string
}

// IsValid returns true if all validation checks passed.
func (r *ReceiptValidationResult) IsValid() bool {
	return r.SignatureValid && r.PayloadValid && r.OutcomeValid && r.CommitmentValid
}
