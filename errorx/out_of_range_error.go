package errorx

import "fmt"

// OutOfRangeErrorf creates an Error with type ErrorTypeOutOfRange and a formatted message
func OutOfRangeErrorf(format string, args ...any) Error {
	return newError(ErrorTypeOutOfRange, fmt.Sprintf(format, args...))
}

func IsOutOfRangeError(e error) bool {
	return isType(e, ErrorTypeOutOfRange)
}
