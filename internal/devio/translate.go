package devio

import (
	"fmt"

	"devio/internal/status"
)

type OutcomeKind uint8
const (
	OutcomeSuccess OutcomeKind = iota
	// Warning-class status: reported as an error but the output is usable.
	OutcomeSuccessWithInfo
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:			return "success"
	case OutcomeSuccessWithInfo: 	return "success-with-info"
	case OutcomeFailure: 			return "failure"
	}
	return fmt.Sprintf("outcome(%d)", uint8(k))
}

type Outcome struct {
	Kind	OutcomeKind
	Bytes	uint32
	Err		error
}

// Translate classifies a status. Bytes is left for the caller to fill in from its
// completion slot.
func Translate(st status.Status) Outcome {
	switch {
	case st.IsSuccess():
		return Outcome{Kind: OutcomeSuccess}
	case st.IsError():
		return Outcome{Kind: OutcomeFailure, Err: st.Err()}
	default:
		return Outcome{Kind: OutcomeSuccessWithInfo, Err: st.Err()}
	}
}

// Result is the boundary form: a nil error only for a full success.
func (o Outcome) Result() (uint32, error) {
	if o.Kind == OutcomeSuccess {
		return o.Bytes, nil
	}
	return o.Bytes, o.Err
}

func failure(err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}
