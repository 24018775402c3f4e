package builder

import (
	"errors"
	"fmt"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
)

// ErrorCode categorizes builder errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates no node has the given ID.
	ErrCodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// ErrCodeNotGroup indicates a group operation addressed a condition.
	ErrCodeNotGroup ErrorCode = "NOT_A_GROUP"

	// ErrCodeNotCondition indicates a condition operation addressed a group.
	ErrCodeNotCondition ErrorCode = "NOT_A_CONDITION"

	// ErrCodeIndexOutOfRange indicates DeleteAt was given a bad position.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"
)

// Error is returned when an edit cannot be applied. The tree is unchanged.
type Error struct {
	Code    ErrorCode
	NodeID  filter.NodeID
	Message string
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodeID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a NODE_NOT_FOUND builder error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// CodeOf returns the builder error code carried by err, or "".
func CodeOf(err error) ErrorCode {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func notFound(id filter.NodeID) *Error {
	return &Error{Code: ErrCodeNotFound, NodeID: id, Message: "no such node"}
}
