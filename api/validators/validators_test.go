package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/nmorales-dev/storefront-backend/pkg/errors"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","password":"secret"}`))

	var body loginBody
	require.NoError(t, DecodeJSONBody(r, &body))
	assert.Equal(t, "a@b.com", body.Email)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","password":"x","extra":true}`))

	var body loginBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","password":""}`))

	var body loginBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["password"])
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3", nil)
	page, err := ParseQueryInt(r, "page", 1, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	missing, err := ParseQueryInt(r, "limit", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, missing)

	r = httptest.NewRequest("GET", "/?page=abc", nil)
	_, err = ParseQueryInt(r, "page", 1, 1, 1000)
	require.NotNil(t, pkgerrors.As(err))

	r = httptest.NewRequest("GET", "/?page=0", nil)
	_, err = ParseQueryInt(r, "page", 1, 1, 1000)
	require.NotNil(t, pkgerrors.As(err))
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest("GET", "/?minPrice=12.50", nil)
	value, err := ParseQueryDecimal(r, "minPrice")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "12.5", value.String())

	absent, err := ParseQueryDecimal(r, "maxPrice")
	require.NoError(t, err)
	assert.Nil(t, absent)

	r = httptest.NewRequest("GET", "/?minPrice=cheap", nil)
	_, err = ParseQueryDecimal(r, "minPrice")
	require.NotNil(t, pkgerrors.As(err))
}
