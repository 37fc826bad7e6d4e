package apperr

type Code string

const (
	CodeUnknown    Code = "UNKNOWN"
	CodeBadRequest Code = "BAD_REQUEST"
	CodeNotFound   Code = "NOT_FOUND"
	CodeForbidden  Code = "FORBIDDEN"
	CodeConflict   Code = "CONFLICT"
	CodeInternal   Code = "INTERNAL"
)
