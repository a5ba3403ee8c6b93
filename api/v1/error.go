package api_v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/engine"
	"github.com/mohitkumar/autoflow/metadata"
	"github.com/mohitkumar/autoflow/persistence"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

// Code classifies an error coming out of the service layer.
func Code(err error) codes.Code {
	var validation metadata.ValidationError
	var unknown action.UnknownActionTypeError
	var execErr *action.ExecutionError
	var storageErr persistence.StorageLayerError
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, engine.ErrWorkflowUnavailable), errors.Is(err, persistence.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, persistence.ErrAlreadyExists):
		return codes.AlreadyExists
	case errors.As(err, &validation):
		return codes.InvalidArgument
	case errors.As(err, &unknown):
		return codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.As(err, &execErr):
		if execErr.Timeout() {
			return codes.DeadlineExceeded
		}
		return codes.Aborted
	case errors.As(err, &storageErr):
		return codes.Internal
	}
	return codes.Internal
}

func HTTPStatus(err error) int {
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.Canceled:
		return http.StatusRequestTimeout
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Aborted:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Message hides storage details from callers.
func Message(err error) string {
	var storageErr persistence.StorageLayerError
	if errors.As(err, &storageErr) {
		return "error in underline storage layer"
	}
	return err.Error()
}

func ToStatus(err error) *status.Status {
	msg := Message(err)
	st := status.New(Code(err), msg)
	d := &errdetails.LocalizedMessage{
		Locale:  "en-US",
		Message: msg,
	}
	std, derr := st.WithDetails(d)
	if derr != nil {
		return st
	}
	return std
}
