package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes loop errors.
type ErrorCode string

const (
	// ErrCodeProposalFailed indicates the proposal's value could not be produced.
	ErrCodeProposalFailed ErrorCode = "PROPOSAL_FAILED"

	// ErrCodeAcceptFailed indicates the accept step returned an error.
	ErrCodeAcceptFailed ErrorCode = "ACCEPT_FAILED"

	// ErrCodeRenderFailed indicates a render pass returned an error.
	ErrCodeRenderFailed ErrorCode = "RENDER_FAILED"

	// ErrCodeUnknownAction indicates an action name absent from the table.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"

	// ErrCodeUnknownHandler indicates a handler name absent from the handler set.
	ErrCodeUnknownHandler ErrorCode = "UNKNOWN_HANDLER"
)

// ProposalError is returned by Pipeline.Propose when the sequence for an
// accepted proposal fails. The busy flag has been released by the time
// the caller sees it.
type ProposalError struct {
	Code  ErrorCode
	Name  string // proposal name
	Token string // cancellation token, empty for non-cancellable proposals
	Err   error
}

// Error implements the error interface.
func (e *ProposalError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: proposal %q (token=%s): %v", e.Code, e.Name, e.Token, e.Err)
	}
	return fmt.Sprintf("%s: proposal %q: %v", e.Code, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProposalError) Unwrap() error {
	return e.Err
}

// DispatchError reports an action reference that cannot be resolved
// against the current action table.
type DispatchError struct {
	Code    ErrorCode
	Action  string
	Handler string
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Code == ErrCodeUnknownHandler {
		return fmt.Sprintf("%s: handler %q for action %q", e.Code, e.Handler, e.Action)
	}
	return fmt.Sprintf("%s: action %q", e.Code, e.Action)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *ProposalError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsAcceptError reports whether err came from the accept step.
// Uses errors.As to handle wrapped errors.
func IsAcceptError(err error) bool {
	return hasCode(err, ErrCodeAcceptFailed)
}

// IsRenderError reports whether err came from a render pass.
func IsRenderError(err error) bool {
	return hasCode(err, ErrCodeRenderFailed)
}

// IsProposalFailed reports whether the proposal's own value failed.
func IsProposalFailed(err error) bool {
	return hasCode(err, ErrCodeProposalFailed)
}

// IsUnknownAction reports whether err names an action the table lacks.
func IsUnknownAction(err error) bool {
	return hasCode(err, ErrCodeUnknownAction)
}
