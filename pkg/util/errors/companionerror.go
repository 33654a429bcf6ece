package errors

import (
	"fmt"
)

// CompanionError - coded error used across the companion SDK
type CompanionError struct {
	error

	formattedErr bool
	Code         int    `json:"code"`
	Message      string `json:"message"`
	formatArgs   []interface{}
}

// New - Creates a new Companion Error
func New(errCode int, errMessage string) *CompanionError {
	return &CompanionError{formattedErr: false, Code: errCode, Message: errMessage}
}

// Newf - Creates a new formatted Companion Error
func Newf(errCode int, errMessage string) *CompanionError {
	return &CompanionError{formattedErr: true, Code: errCode, Message: errMessage}
}

// Wrap - add additional data to a defined error
func Wrap(companionError *CompanionError, info string) *CompanionError {
	message := companionError.Message
	if info != "" {
		message += fmt.Sprintf(": %s", info)
	}
	return &CompanionError{
		formattedErr: companionError.formattedErr,
		Code:         companionError.Code,
		Message:      message,
		formatArgs:   companionError.formatArgs,
	}
}

// FormatError - Creates a Error with applied formatting
func (e *CompanionError) FormatError(args ...interface{}) error {
	return &CompanionError{formattedErr: e.formattedErr, Code: e.Code, Message: e.Message, formatArgs: args}
}

// Error - Returns the formatted error message
func (e *CompanionError) Error() string {
	if e.formattedErr {
		formattedMsg := fmt.Sprintf(e.Message, e.formatArgs...)
		return fmt.Sprintf("[Error Code %d] - %s", e.Code, formattedMsg)
	}

	return fmt.Sprintf("[Error Code %d] - %s", e.Code, e.Message)
}

// GetErrorCode - Returns the error code
func (e *CompanionError) GetErrorCode() int {
	return e.Code
}
