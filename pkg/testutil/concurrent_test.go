package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
)

func TestRunConcurrentCategorizes(t *testing.T) {
	res := RunConcurrent(5, func(idx int) error {
		switch idx {
		case 0:
			return nil
		case 1:
			return dErrors.New(dErrors.CodeConflict, "already revoked")
		case 2:
			return sentinel.ErrAlreadyUsed
		case 3:
			return dErrors.New(dErrors.CodeNotFound, "gone")
		default:
			return errors.New("boom")
		}
	})
	assert.Equal(t, int32(1), res.Successes)
	assert.Equal(t, int32(2), res.Conflicts)
	assert.Equal(t, int32(1), res.NotFounds)
	assert.Equal(t, int32(1), res.Errors)
	assert.Equal(t, int32(5), res.Total())
}
