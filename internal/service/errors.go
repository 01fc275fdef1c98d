package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "academic-journal/backend/pkg/errors"
)

// ── 业务错误 ──

var (
	ErrGroupNotFound   = pkgerrors.New(pkgerrors.KindNotFound, "小组不存在")
	ErrStudentNotFound = pkgerrors.New(pkgerrors.KindNotFound, "学生不存在")
	ErrSubjectNotFound = pkgerrors.New(pkgerrors.KindNotFound, "课程不存在")
	ErrTeacherNotFound = pkgerrors.New(pkgerrors.KindNotFound, "教师不存在")
	ErrRecordNotFound  = pkgerrors.New(pkgerrors.KindNotFound, "课节记录不存在")
	ErrSlotNotFound    = pkgerrors.New(pkgerrors.KindNotFound, "课表中该时段没有课")

	ErrSubjectMismatch    = pkgerrors.New(pkgerrors.KindValidation, "课程与课表不一致")
	ErrShiftMismatch      = pkgerrors.New(pkgerrors.KindValidation, "班次与上课时间不一致")
	ErrInvalidSlot        = pkgerrors.New(pkgerrors.KindValidation, "节次必须在 1-6 之间")
	ErrInvalidShift       = pkgerrors.New(pkgerrors.KindValidation, "班次只能为 1 或 2")
	ErrInvalidAttendance  = pkgerrors.New(pkgerrors.KindValidation, "出勤状态无效")
	ErrInvalidGrade       = pkgerrors.New(pkgerrors.KindValidation, "分数必须在 0-5 之间")
	ErrInvalidThreshold   = pkgerrors.New(pkgerrors.KindValidation, "阈值不能为负数")
	ErrStudentNotInRoster = pkgerrors.New(pkgerrors.KindValidation, "学生不在该课节名单中")

	ErrForbidden = pkgerrors.New(pkgerrors.KindForbidden, "只有任课教师或管理员可以修改课节记录")
)

// notFoundOr 将 gorm.ErrRecordNotFound 映射为业务错误，其余包装为存储错误
func notFoundOr(err error, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return pkgerrors.Storage(op, err)
}

// withSlot 附加小组、日期与节次上下文
func withSlot(err error, groupID string, date fmt.Stringer, slot int) error {
	return fmt.Errorf("小组 %s %s 第%d节: %w", groupID, date, slot, err)
}
