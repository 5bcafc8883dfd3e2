package reconciliation

// ValidationError rejects a remittance call before any side effect
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "remittance validation failed: " + e.Reason
}

// Is implements the errors.Is interface for ValidationError
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	// If the target Reason is empty, consider it a match for any ValidationError
	if t.Reason == "" {
		return true
	}
	return e.Reason == t.Reason
}

// UploadError indicates the signature artifact could not be stored or
// resolved. It aborts the whole call: nothing is written to the ledger
// after it.
type UploadError struct {
	Key string
	Err error
}

func (e UploadError) Error() string {
	return "signature upload failed for " + e.Key + ": " + e.Err.Error()
}

func (e UploadError) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is interface for UploadError
func (e UploadError) Is(target error) bool {
	t, ok := target.(UploadError)
	if !ok {
		return false
	}
	// If the target Key is empty, consider it a match for any UploadError
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}
