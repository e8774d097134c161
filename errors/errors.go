package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotFound        = fmt.Errorf("not found")
	ErrForbidden       = fmt.Errorf("not authorized for this conversation")

	// ErrDecryptionFailed is a data-integrity incident, never a client input problem.
	ErrDecryptionFailed = fmt.Errorf("message decryption failed")

	ErrMissingIdentifiers   = fmt.Errorf("%w: conversation and actor ids are required", ErrInvalidArgument)
	ErrEmptyMessage         = fmt.Errorf("%w: message text cannot be empty", ErrInvalidArgument)
	ErrInvalidConversation  = fmt.Errorf("%w: conversation violates membership rules", ErrInvalidArgument)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrNotGroupMember       = fmt.Errorf("%w: you are no longer a member of this group", ErrForbidden)

	ErrUnknownKeyVersion = fmt.Errorf("unknown or retired key version")
	ErrUnknownAlgorithm  = fmt.Errorf("unknown encryption algorithm")
	ErrInvalidMasterKey  = fmt.Errorf("master key must be 32 bytes hex encoded")
	ErrUserNotFound      = fmt.Errorf("user not found")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// HTTPStatus maps the error taxonomy onto the status codes expected by an HTTP layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case goerrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// MapToGRPCError converts domain errors into gRPC status errors.
// Unknown errors are reported as Internal without leaking their message.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case goerrors.Is(err, context.Canceled), goerrors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case goerrors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case goerrors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case goerrors.Is(err, ErrNotGroupMember):
		return status.Error(codes.PermissionDenied, ErrNotGroupMember.Error())
	case goerrors.Is(err, ErrForbidden):
		return status.Error(codes.PermissionDenied, ErrForbidden.Error())
	case goerrors.Is(err, ErrDecryptionFailed):
		return status.Error(codes.DataLoss, ErrDecryptionFailed.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
