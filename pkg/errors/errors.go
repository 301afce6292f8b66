package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrConditionalWrite 条件写未命中：守卫条件在提交时已不成立
// （如：病区仅剩一名管理员、配额已满、开放换班已被认领）
var ErrConditionalWrite = errors.New("条件写入失败：前置条件已不满足")
