package errorx

import "fmt"

// InvalidArgumentErrorf creates an Error with type ErrorTypeInvalidArgument and a formatted message
func InvalidArgumentErrorf(format string, args ...any) Error {
	return newError(ErrorTypeInvalidArgument, fmt.Sprintf(format, args...))
}

func IsInvalidArgumentError(e error) bool {
	return isType(e, ErrorTypeInvalidArgument)
}
