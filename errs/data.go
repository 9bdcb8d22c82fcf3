package errs

const (
	CodeNetFail = -1*iota - 1
	CodeTimeout
	CodeNotImplement
	CodeInvalidResponse
	CodeUnmarshalFail
	CodeParamRequired
	CodeParamInvalid
	CodeConfigLoad
	CodeNotFound
	CodeInvalidExchange
	CodeInvalidRange
	CodeRangeTooEarly
	CodeRangeInFuture
	CodeIOReadFail
	CodeIOWriteFail
	CodeCanceled
	CodeRunTime
)

const (
	KindFetch          = "fetch"
	KindParse          = "parse"
	KindNotImplemented = "not_implemented"
	KindCanceled       = "canceled"
	KindOther          = "other"
)

var codeNames = map[int]string{
	CodeNetFail:         "NetFail",
	CodeTimeout:         "Timeout",
	CodeNotImplement:    "NotImplement",
	CodeInvalidResponse: "InvalidResponse",
	CodeUnmarshalFail:   "UnmarshalFail",
	CodeParamRequired:   "ParamRequired",
	CodeParamInvalid:    "ParamInvalid",
	CodeConfigLoad:      "ConfigLoad",
	CodeNotFound:        "NotFound",
	CodeInvalidExchange: "InvalidExchange",
	CodeInvalidRange:    "InvalidRange",
	CodeRangeTooEarly:   "RangeTooEarly",
	CodeRangeInFuture:   "RangeInFuture",
	CodeIOReadFail:      "IOReadFail",
	CodeIOWriteFail:     "IOWriteFail",
	CodeCanceled:        "Canceled",
	CodeRunTime:         "RunTime",
}
