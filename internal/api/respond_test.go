package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soaringjerry/mindbridge/internal/services"
)

func TestStatusFor(t *testing.T) {
	cases := map[services.ErrorCode]int{
		services.ErrorInvalid:             http.StatusBadRequest,
		services.ErrorNotFound:            http.StatusNotFound,
		services.ErrorPreconditionFailed:  http.StatusConflict,
		services.ErrorConflict:            http.StatusConflict,
		services.ErrorUnauthorized:        http.StatusUnauthorized,
		services.ErrorCode("bad_gateway"): http.StatusInternalServerError,
		services.ErrorCode(""):            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, statusFor(code), "code %q", code)
	}
}
