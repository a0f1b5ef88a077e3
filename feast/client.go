// Package feast 对接 Feast Feature Store 的在线特征服务，
// 把身份的在线特征（近期类目/创作者、设备等）转换为推荐情境。
//
// 领域层只依赖 Client 接口（在线特征获取），基础设施层由 GrpcClient
// （官方 SDK）实现，可替换为自研特征服务。
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"time"
)

// Client 是在线特征服务的客户端接口。
type Client interface {
	// GetOnlineFeatures 获取在线特征（实时推荐用）
	//
	// 参数：
	//   - features: 特征名称列表，例如 ["viewer_stats:recent_categories"]
	//   - entityRows: 实体行，例如 [{"identity_id": "u_1001"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表
	Features []string

	// EntityRows 实体行，每行对应一个实体的主键集合
	EntityRows []map[string]any

	// Project 项目名称（可选，缺省用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应。
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与请求的实体行一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 一个实体的特征向量。
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]any

	// EntityRow 对应的实体行
	EntityRow map[string]any
}

// ClientOption 客户端配置选项。
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置。
type ClientConfig struct {
	// Timeout 请求超时
	Timeout time.Duration

	// StaticToken 静态 Token 认证（为空则不认证）
	StaticToken string

	// EnableTLS 是否启用 TLS（仅认证连接时生效）
	EnableTLS bool
}

// WithTimeout 设置请求超时。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithStaticToken 使用静态 Token 认证。
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.StaticToken = token
	}
}

// WithTLS 启用 TLS。
func WithTLS() ClientOption {
	return func(c *ClientConfig) {
		c.EnableTLS = true
	}
}
