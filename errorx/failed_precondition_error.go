package errorx

import "fmt"

// FailedPreconditionErrorf creates an Error with type ErrorTypeFailedPrecondition and a formatted message
func FailedPreconditionErrorf(format string, args ...any) Error {
	return newError(ErrorTypeFailedPrecondition, fmt.Sprintf(format, args...))
}

func IsFailedPreconditionError(e error) bool {
	return isType(e, ErrorTypeFailedPrecondition)
}
