package applications

// FieldError is a single failed check on a request field.
// Field uses the request path, e.g. "vehiclesData[0].year".
type FieldError struct {
	Field   string
	Message string
}

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Fields  []FieldError

	// Err is the underlying failure for internal errors. It is never rendered to clients.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "APPLICATION_NOT_FOUND"
	CodeSubmitted       = "APPLICATION_SUBMITTED"
	CodeInternal        = "INTERNAL_ERROR"
	msgInvalidInputs    = "Invalid inputs passed, please check your data."
	msgNotFound         = "Application not found"
	msgNotFoundForID    = "Could not find an application for the provided id."
	msgCreateFailed     = "Creating the application failed, please try again."
	msgUpdateFailed     = "Updating application failed, please try again."
	msgSubmitFailed     = "Submitting application failed, please try again."
	msgDeleteFailed     = "Deleting application failed, please try again."
	msgAlreadySubmitted = "Application has already been submitted."
)

func validationError(fields []FieldError) *Error {
	return &Error{Status: 422, Code: CodeValidation, Message: msgInvalidInputs, Fields: fields}
}

func notFound(msg string) *Error {
	return &Error{Status: 404, Code: CodeNotFound, Message: msg}
}

func internal(msg string, err error) *Error {
	return &Error{Status: 500, Code: CodeInternal, Message: msg, Err: err}
}
