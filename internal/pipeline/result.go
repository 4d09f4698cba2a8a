package pipeline

// Result is the outcome of one stage: either a Success carrying a payload or
// a Failure carrying an *Error. Exactly one of Payload/Err is meaningful.
type Result struct {
	Payload any    `json:"payload,omitempty"`
	Err     *Error `json:"error,omitempty"`
}

func Succeeded(payload any) Result {
	return Result{Payload: payload}
}

func Failed(err *Error) Result {
	if err == nil {
		err = Failure(KindCollaborator, "stage failed without an error")
	}
	return Result{Err: err}
}

func (r Result) OK() bool { return r.Err == nil }

// Kind returns the failure kind, or "" on success.
func (r Result) Kind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}

func (r Result) Status() string {
	if r.OK() {
		return "success"
	}
	return "failure"
}
