package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Run("Given a taxonomy error Then its code is extracted", func(t *testing.T) {
		if got := CodeOf(NotFound("project not found")); got != CodeNotFound {
			t.Errorf("expected not_found, got %s", got)
		}
	})

	t.Run("Given a wrapped taxonomy error Then the code survives wrapping", func(t *testing.T) {
		inner := Conflict("escrow already funded")
		wrapped := fmt.Errorf("creating escrow: %w", inner)
		if got := CodeOf(wrapped); got != CodeConflict {
			t.Errorf("expected conflict, got %s", got)
		}
	})

	t.Run("Given an unknown error Then the code is internal", func(t *testing.T) {
		if got := CodeOf(errors.New("boom")); got != CodeInternal {
			t.Errorf("expected internal, got %s", got)
		}
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeUnavailable, cause, "payment gateway unreachable")

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if err.Error() != "payment gateway unreachable: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidArgument("bad amount"), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("not the owner"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("already released"), http.StatusConflict},
		{FailedPrecondition("no accepted bid"), http.StatusUnprocessableEntity},
		{Unavailable(errors.New("timeout"), "gateway down"), http.StatusBadGateway},
		{Internal(errors.New("boom"), "oops"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v): expected %d, got %d", tc.err, tc.want, got)
		}
	}
}
