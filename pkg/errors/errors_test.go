package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedSentinel(t *testing.T) {
	sentinel := New(KindNotFound, "课程不存在")
	wrapped := fmt.Errorf("%w: group=g1 slot=3", sentinel)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindValidation))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
	assert.False(t, Is(nil, KindInternal))
}

func TestStorage(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Storage("查询考勤记录", cause)

	assert.Equal(t, KindStorage, KindOf(err))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "查询考勤记录: connection reset", err.Error())
	assert.Nil(t, Storage("noop", nil))
}

func TestOptimisticLockIsConflict(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrOptimisticLock))
	assert.Equal(t, "conflict", KindOf(ErrOptimisticLock).String())
}
