package errs

import (
	"errors"
	"fmt"
)

func NewMsg(code int, format string, a ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, a...)}
}

func New(code int, err error) *Error {
	return &Error{Code: code, Msg: err.Error()}
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", CodeName(e.Code), e.Msg)
}

/*
Short
return message without code name, used in summaries and log fields
*/
func (e *Error) Short() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func CodeName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("%d", code)
}

/*
Is
report whether err is an *Error with the given code, unwrapping std errors
*/
func Is(err error, code int) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e != nil && e.Code == code
	}
	return false
}

/*
FailKind
classify an adapter failure for crawl summaries: timeouts count as fetch failures
*/
func FailKind(code int) string {
	switch code {
	case CodeNetFail, CodeTimeout, CodeInvalidResponse:
		return KindFetch
	case CodeUnmarshalFail:
		return KindParse
	case CodeNotImplement:
		return KindNotImplemented
	case CodeCanceled:
		return KindCanceled
	default:
		return KindOther
	}
}
