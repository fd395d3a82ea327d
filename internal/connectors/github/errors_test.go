package github

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

func TestRateLimitError_MapsToDomainSentinel(t *testing.T) {
	err := fmt.Errorf("get tree: %w", &RateLimitError{
		ResetAt:   time.Now().Add(time.Minute),
		Remaining: 0,
		Limit:     5000,
	})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, IsRateLimited(err))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{StatusCode: 404, Message: "Not Found"}))
	assert.True(t, IsNotFound(ErrRepoNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrBranchNotFound)))
	assert.False(t, IsNotFound(&APIError{StatusCode: 500}))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(&APIError{StatusCode: 401, Message: "Bad credentials"}))
	assert.False(t, IsUnauthorized(&APIError{StatusCode: 403}))
	assert.False(t, IsUnauthorized(errors.New("other")))
}
