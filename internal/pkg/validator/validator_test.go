package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required,email"`
	Items []item `validate:"dive"`
}

type item struct {
	ID string `validate:"required,max=4"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@b.co", Items: []item{{ID: "x"}}}))

	errs := Validate(sample{Email: "nope", Items: []item{{ID: "toolong"}}})
	assert.Equal(t, "email", errs["sample.Email"])
	assert.Equal(t, "max", errs["sample.Items[0].ID"])
}
