package errorx

import "fmt"

// UnavailableErrorf creates an Error with type ErrorTypeUnavailable and a formatted message
func UnavailableErrorf(format string, args ...any) Error {
	return newError(ErrorTypeUnavailable, fmt.Sprintf(format, args...))
}

func IsUnavailableError(e error) bool {
	return isType(e, ErrorTypeUnavailable)
}
