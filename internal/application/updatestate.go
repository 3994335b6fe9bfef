package application

import (
	"errors"
	"log/slog"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// advance moves res to the next state of the update machine.
func advance(res *model.UpdateResult, to model.UpdateState) {
	slog.Debug("state transition",
		"kind", res.Kind,
		"id", res.Identifier,
		"from", res.State,
		"to", to,
	)
	res.State = to
}

// fail moves res into a terminal failure state and records err.
func fail(res model.UpdateResult, state model.UpdateState, cause model.FailureCause, err error) model.UpdateResult {
	advance(&res, state)
	res.Cause = cause
	res.Success = false
	res.Reason = err.Error()

	attrs := []any{"kind", res.Kind, "id", res.Identifier, "state", res.State, "error", err}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		res.APIError = apiErr
		attrs = append(attrs, "status", apiErr.Status, "reason", apiErr.Reason)
		if apiErr.Content != "" {
			attrs = append(attrs, "content", apiErr.Content)
		}
	}
	slog.Error("update failed", attrs...)
	return res
}

// submitFailed classifies a write error as an API rejection or an
// unexpected failure.
func submitFailed(res model.UpdateResult, err error) model.UpdateResult {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fail(res, model.StateSubmitFailed, model.CauseAPIError, err)
	}
	return fail(res, model.StateSubmitFailed, model.CauseUnexpected, err)
}

// logFetchError logs a read failure with the API status when there is one.
func logFetchError(kind model.ResourceKind, id string, err error) {
	attrs := []any{"kind", kind, "id", id, "error", err}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "status", apiErr.Status, "reason", apiErr.Reason)
	}
	slog.Warn("fetch failed", attrs...)
}
