package util

const (
	// ContextClaimsKey 认证中间件写入gin上下文的键
	ContextClaimsKey = "claims"

	// DefaultPage 默认页码
	DefaultPage = 1
	// DefaultLimit 默认分页大小
	DefaultLimit = 20
	// MaxLimit 分页大小上限
	MaxLimit = 100

	// MaxMessageLength 单条消息内容的最大长度（字符数）
	MaxMessageLength = 5000
	// MaxRequestMessage 申请附言的最大长度
	MaxRequestMessage = 255
)
