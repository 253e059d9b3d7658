package errdef_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/offerboard/offer-manager/internal/errdef"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.False(t, errdef.IsNotFound(errors.New("some error")))
	assert.True(t, errdef.IsNotFound(errdef.NewNotFound("some error")))
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, errdef.IsUnauthorized(errors.New("some error")))
	assert.True(t, errdef.IsUnauthorized(errdef.NewUnauthorized("some error")))
}

func TestIsForbidden(t *testing.T) {
	assert.False(t, errdef.IsForbidden(errors.New("some error")))
	assert.True(t, errdef.IsForbidden(errdef.NewForbidden("some error")))
}

func TestIsBadRequest(t *testing.T) {
	assert.False(t, errdef.IsBadRequest(errors.New("some error")))
	assert.True(t, errdef.IsBadRequest(errdef.NewBadRequest("some error")))
}

func TestIsDuplicated(t *testing.T) {
	assert.False(t, errdef.IsDuplicated(errors.New("some error")))
	assert.True(t, errdef.IsDuplicated(errdef.NewDuplicated("some error")))
}

func TestIsConflict(t *testing.T) {
	assert.False(t, errdef.IsConflict(errors.New("some error")))
	assert.True(t, errdef.IsConflict(errdef.NewConflict("some error")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("saving offer: %w", errdef.NewConflict("offer is already published"))
	assert.True(t, errdef.IsConflict(err))
	assert.False(t, errdef.IsNotFound(err))
}
