package errors

import (
	"errors"
	"fmt"
)

// Kind 错误分类，决定错误在传输层的呈现方式
type Kind uint8

const (
	KindInternal   Kind = iota // 未分类错误，按服务端错误处理
	KindValidation             // 输入不合法，客户端需修正
	KindNotFound               // 资源不存在
	KindConflict               // 唯一性或版本冲突
	KindForbidden              // 无权操作
	KindStorage                // 存储协作方 I/O 失败
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error 带分类的错误
// 作为哨兵错误使用时以指针身份比较，可被 fmt.Errorf("%w") 包装后继续 errors.Is 匹配
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建分类哨兵错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Storage 包装存储层错误，op 描述失败的操作
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf 返回错误链中第一个分类错误的 Kind
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断错误是否属于指定分类
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, "数据已被其他操作修改，请刷新后重试")
