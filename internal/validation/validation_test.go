package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"userName" validate:"required,min=2"`
	Email string `json:"userEmail" validate:"required,email"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Count int    `json:"count" validate:"gte=1"`
	Flag  bool   `json:"flag"`
	Why   string `json:"why" validate:"required_if=Flag true"`
}

func TestStructValid(t *testing.T) {
	v := New()
	err := v.Struct(sample{Name: "Ana", Email: "ana@example.com", Date: "2030-01-07", Count: 1}, "bad")
	assert.NoError(t, err)
}

func TestStructFieldErrorsUseJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{Name: "A", Email: "nope", Date: "07/01/2030", Count: 0, Flag: true}, "Missing Fields.")
	require.Error(t, err)

	ve, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "Missing Fields.", ve.Message)
	assert.Equal(t, "userName must be at least 2 characters", ve.Fields["userName"])
	assert.Equal(t, "Please enter a valid email address", ve.Fields["userEmail"])
	assert.Equal(t, "date must be formatted as 2006-01-02", ve.Fields["date"])
	assert.Equal(t, "count must be greater than or equal to 1", ve.Fields["count"])
	assert.Equal(t, "why is required", ve.Fields["why"])
}

func TestErrorAddKeepsFirst(t *testing.T) {
	e := &Error{Message: "invalid"}
	assert.NoError(t, e.OrNil())

	e.Add("workHoursEnd", "first")
	e.Add("workHoursEnd", "second")
	assert.Equal(t, "first", e.Fields["workHoursEnd"])
	assert.Equal(t, "invalid (workHoursEnd: first)", e.Error())
	assert.Error(t, e.OrNil())
}

func TestAsWrapped(t *testing.T) {
	base := NewError("invalid", "date", "Please select a date")
	wrapped := errors.Join(errors.New("context"), base)

	ve, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Please select a date", ve.Fields["date"])
}
