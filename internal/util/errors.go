package util

import "errors"

// 消息核心的错误分类。账本写入失败原样返回给调用方，
// 推送层的失败永远不会传播到这里。
var (
	ErrNotFound               = errors.New("资源不存在")
	ErrForbidden              = errors.New("无权限执行此操作")
	ErrInvalidTransition      = errors.New("当前状态不允许此操作")
	ErrDuplicateActiveRequest = errors.New("已有待处理或已接受的申请")
	ErrInvalidTarget          = errors.New("目标用户不存在或未激活")
	ErrEmptyContent           = errors.New("消息内容不能为空")

	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
