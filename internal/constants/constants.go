package constants

// 销售角色常量
const (
	SalesRolePrimary     = "primary"
	SalesRoleSecondary   = "secondary"
	SalesRoleIndependent = "independent"
)

// 销售账号状态常量
const (
	SalesStatusActive  = "active"
	SalesStatusRemoved = "removed"
)

// 层级关系状态常量
const (
	HierarchyLinkStatusActive  = "active"
	HierarchyLinkStatusRemoved = "removed"
)

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
	OrderStatusExpired        = "expired"
)

// ConfirmedOrderStatuses 计入确认收入的订单状态集合
var ConfirmedOrderStatuses = []string{
	OrderStatusPaid,
	OrderStatusConfirmed,
	OrderStatusCompleted,
}

// 佣金状态常量
const (
	CommissionStatusPending = "pending"
	CommissionStatusSettled = "settled"
)

// 支付方式常量
const (
	PaymentMethodWechat = "wechat"
	PaymentMethodAlipay = "alipay"
	PaymentMethodUSDT   = "usdt"
)

// 销售编码格式常量
const (
	SalesCodeLength            = 8
	RegistrationCodePrefix     = "R"
	LegacySalesCodePrefix      = "WX"
	RegistrationCodeBodyLength = 8
)

// 队列常量
const (
	QueueDefault          = "default"
	TaskStatsRecompute    = "stats:recompute"
	TaskStatsRecomputeAll = "stats:recompute_all"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "fx"
)
