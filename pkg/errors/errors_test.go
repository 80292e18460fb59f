package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	require.Nil(t, FromError(nil))
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Clone(ErrNotSoftDeleted, "event a is still active"))
	appErr := FromError(wrapped)
	require.Equal(t, "NOT_SOFT_DELETED", appErr.Code)
	require.Equal(t, http.StatusConflict, appErr.Status)
	require.Equal(t, "event a is still active", appErr.Message)
}

func TestClonedErrorsMatchByCode(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(cause, ErrInterpreterUnavailable.Code, ErrInterpreterUnavailable.Status, "interpreter unreachable")
	require.ErrorIs(t, err, ErrInterpreterUnavailable)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrSyncFailed)
	require.Equal(t, "interpreter unreachable: dial tcp: refused", err.Error())
}
