package core

// TimeOfDay 是请求时段，由调用方按其本地时区归一化后传入。
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// DeviceClass 是请求设备类型。
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
	DeviceTablet  DeviceClass = "tablet"
	DeviceTV      DeviceClass = "tv"
)

// UserContext 是一次请求的情境信息：时段、设备、近期口味。
// 由调用方提供，或由 feast 特征服务按身份推导；只在请求内存活，从不落盘。
type UserContext struct {
	TimeOfDay TimeOfDay
	Device    DeviceClass

	// 近期口味，用于亲和加权与疲劳惩罚
	RecentCategoryIDs []string
	RecentCreatorIDs  []string
}

// RecommendContext 承载一次推荐请求的身份/情境信息，贯穿整个链路透传。
//
// 身份约定：UserID 与 SessionID 二选一。UserID 非空表示已登录用户（信号库里有
// 持久历史）；否则 SessionID 标识匿名会话（只有 TTL 会话行为缓存可用）。
type RecommendContext struct {
	UserID    string
	SessionID string

	// Limit 是本次请求的目标条数，Node 形态的编排节点从这里取
	Limit int

	// Context 是可选的情境信息，为 nil 时跳过情境重排
	Context *UserContext

	// OnboardingCategories 是新用户注册时勾选的类目偏好，仅冷启动路径使用
	OnboardingCategories []string

	// Params 请求级扩展参数（device_type、query 等），供规则重排的 CEL 表达式读取
	Params map[string]any
}

// IdentityRef 返回信号库使用的身份引用：优先 UserID，其次 SessionID。
func (rctx *RecommendContext) IdentityRef() string {
	if rctx.UserID != "" {
		return rctx.UserID
	}
	return rctx.SessionID
}

// IsAnonymous 判断是否匿名会话（没有持久化的跨会话历史可挖）。
func (rctx *RecommendContext) IsAnonymous() bool {
	return rctx.UserID == ""
}
