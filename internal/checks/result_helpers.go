package checks

import "fmt"

func NewResult(f File, checkID string, status Status, message string) Result {
	res := Result{
		CheckID: checkID,
		Path:    f.Path,
		Status:  status,
	}
	if message != "" {
		res.Message = message
	}
	return res
}

func PassResult(f File, checkID string) Result {
	return NewResult(f, checkID, StatusPass, "")
}

func PassResultWithMessage(f File, checkID string, message string) Result {
	return NewResult(f, checkID, StatusPass, message)
}

// FailResult reports findings. When message is empty it is derived from the
// issue count.
func FailResult(f File, checkID string, message string, issues ...Issue) Result {
	if message == "" {
		message = fmt.Sprintf("%d issue(s)", len(issues))
	}
	res := NewResult(f, checkID, StatusFail, message)
	res.Issues = issues
	return res
}

func ErrorResult(f File, checkID string, message string) Result {
	return NewResult(f, checkID, StatusError, message)
}

func SkippedResult(f File, checkID string, message string) Result {
	return NewResult(f, checkID, StatusSkipped, message)
}
