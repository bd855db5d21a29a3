package grpcutil

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/maxpoletaev/rollcall/membership"
)

// ErrorDomain is set in the error info of every membership error sent over gRPC.
const ErrorDomain = "rollcall.membership"

var errorReasons = []struct {
	err    error
	reason string
	code   codes.Code
}{
	{membership.ErrDuplicateActiveMember, "DUPLICATE_ACTIVE_MEMBER", codes.AlreadyExists},
	{membership.ErrVersionConflict, "VERSION_CONFLICT", codes.Aborted},
	{membership.ErrNotActive, "NOT_ACTIVE", codes.FailedPrecondition},
	{membership.ErrInvalidTransition, "INVALID_TRANSITION", codes.FailedPrecondition},
	{membership.ErrRowNotFound, "ROW_NOT_FOUND", codes.NotFound},
	{membership.ErrStoreUnavailable, "STORE_UNAVAILABLE", codes.Unavailable},
}

// ErrorCode extracts a gRPC error code from an error. If the error is not a
// gRPC error, it returns codes.Unknown.
func ErrorCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	return codes.Unknown
}

// ErrorInfo extracts an error info from an error. If the error is not a gRPC
// error or does not contain an error info, it returns nil.
func ErrorInfo(err error) *errdetails.ErrorInfo {
	st := status.Convert(err)

	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info
		}
	}

	return nil
}

// ToStatus converts an error returned by the membership layer to a gRPC status
// error. The membership error is carried as an error info, so that the client
// can restore it with FromStatus.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	for _, r := range errorReasons {
		if !errors.Is(err, r.err) {
			continue
		}

		st, detailErr := status.New(r.code, err.Error()).WithDetails(&errdetails.ErrorInfo{
			Domain: ErrorDomain,
			Reason: r.reason,
		})
		if detailErr != nil {
			return status.Error(r.code, err.Error())
		}

		return st.Err()
	}

	return status.Error(codes.Internal, err.Error())
}

// FromStatus restores the membership error carried by a gRPC status error.
// The restored error keeps the status code. Other errors are returned unchanged.
func FromStatus(err error) error {
	info := ErrorInfo(err)
	if info == nil || info.Domain != ErrorDomain {
		return err
	}

	for _, r := range errorReasons {
		if r.reason == info.Reason {
			st := status.Convert(err)
			return &remoteError{sentinel: r.err, code: st.Code(), msg: st.Message()}
		}
	}

	return err
}

type remoteError struct {
	sentinel error
	code     codes.Code
	msg      string
}

func (e *remoteError) Error() string {
	return e.msg
}

func (e *remoteError) Unwrap() error {
	return e.sentinel
}

func (e *remoteError) GRPCStatus() *status.Status {
	return status.New(e.code, e.msg)
}
