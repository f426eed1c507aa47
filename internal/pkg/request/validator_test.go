package request

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type linkForm struct {
	App      string  `validate:"required"`
	Protocol string  `validate:"oneof=oauth2 api_key"`
	Scopes   []scope `validate:"dive"`
}

type scope struct {
	Name string `validate:"required"`
}

func (f *linkForm) GetMessages() ValidatorMessages {
	return ValidatorMessages{
		"App.required":           "app is required",
		"Protocol.oneof":         "protocol must be oauth2 or api_key",
		"Scopes.*.Name.required": "scope name is required",
	}
}

func TestGetError_CustomMessagesJoined(t *testing.T) {
	form := &linkForm{Protocol: "basic", Scopes: []scope{{}, {}}}
	err := validator.New().Struct(form)

	e := GetError(form, err)
	assert.Equal(t, "app is required; protocol must be oauth2 or api_key; scope name is required", e.ErrorDesc())
}

func TestGetError_FallbackToFieldError(t *testing.T) {
	type plain struct {
		Name string `validate:"required"`
	}
	p := &plain{}
	err := validator.New().Struct(p)

	e := GetError(p, err)
	assert.Contains(t, e.ErrorDesc(), "'Name' failed on the 'required' tag")
}

func TestGetError_NonValidationError(t *testing.T) {
	e := GetError(&linkForm{}, errors.New("boom"))
	assert.Equal(t, "Parameter error", e.ErrorDesc())
}
