package tablescrape_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/tablescrape"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := tablescrape.Errorf(tablescrape.ETABLENOTFOUND, "no table matched %d markers", 3)

	assert.Equal(t, tablescrape.ETABLENOTFOUND, tablescrape.ErrorCode(err))
	assert.Equal(t, "no table matched 3 markers", tablescrape.ErrorMessage(err))
}

func TestWrapf(t *testing.T) {
	t.Parallel()

	err := tablescrape.Wrapf(context.DeadlineExceeded, tablescrape.ETIMEOUT, "content not ready")

	assert.Equal(t, tablescrape.ETIMEOUT, tablescrape.ErrorCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "content not ready: context deadline exceeded", err.Error())
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, tablescrape.ErrorCode(nil))
}

func TestErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tablescrape.EINTERNAL, tablescrape.ErrorCode(errors.New("boom")))
	assert.Equal(t, "Internal error.", tablescrape.ErrorMessage(errors.New("boom")))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, tablescrape.ErrorMessage(nil))
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	retryable := []string{
		tablescrape.ETRANSPORT,
		tablescrape.ETIMEOUT,
		tablescrape.EAUTOMATION,
		tablescrape.ETABLENOTFOUND,
		tablescrape.ENOHEADERS,
		tablescrape.ENOROWS,
		tablescrape.EMALFORMED,
		tablescrape.EPAGINATIONSTALLED,
		tablescrape.EINTERNAL,
	}
	for _, code := range retryable {
		assert.True(t, tablescrape.Retryable(tablescrape.Errorf(code, "x")), code)
	}

	assert.True(t, tablescrape.Retryable(errors.New("unexpected")))
	assert.False(t, tablescrape.Retryable(tablescrape.Errorf(tablescrape.EINVALID, "bad config")))
	assert.False(t, tablescrape.Retryable(tablescrape.Errorf(tablescrape.EIO, "disk full")))
	assert.False(t, tablescrape.Retryable(nil))
}
