package feast

import (
	"context"
	"strings"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/engine"
)

// 缺省的特征视图与实体键约定，与特征仓库的 feature_view 定义对齐。
const (
	DefaultEntityKey         = "identity_id"
	DefaultCategoriesFeature = "viewer_profile:recent_categories"
	DefaultCreatorsFeature   = "viewer_profile:recent_creators"
	DefaultDeviceFeature     = "viewer_profile:device"
)

// ContextProvider 用在线特征推导请求情境：近期类目/创作者来自特征仓库，
// 时段由本地时钟推导。实现 engine.ContextProvider。
//
// 特征取不到或取数失败时返回错误，由引擎降级（跳过情境重排），
// 这里不吞错误。
type ContextProvider struct {
	Client Client

	// Project 项目名称（可选，缺省用客户端配置）
	Project string

	// EntityKey 实体键名，零值用 DefaultEntityKey
	EntityKey string

	// CategoriesFeature/CreatorsFeature/DeviceFeature 特征名，零值用缺省约定
	CategoriesFeature string
	CreatorsFeature   string
	DeviceFeature     string

	// Now 取当前时间，测试注入用，零值 time.Now
	Now func() time.Time
}

func (p *ContextProvider) entityKey() string {
	if p.EntityKey != "" {
		return p.EntityKey
	}
	return DefaultEntityKey
}

func (p *ContextProvider) features() (categories, creators, device string) {
	categories = p.CategoriesFeature
	if categories == "" {
		categories = DefaultCategoriesFeature
	}
	creators = p.CreatorsFeature
	if creators == "" {
		creators = DefaultCreatorsFeature
	}
	device = p.DeviceFeature
	if device == "" {
		device = DefaultDeviceFeature
	}
	return
}

func (p *ContextProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// UserContext 按身份拉取在线特征并组装情境。
func (p *ContextProvider) UserContext(ctx context.Context, identityRef string) (*core.UserContext, error) {
	categoriesFeature, creatorsFeature, deviceFeature := p.features()

	resp, err := p.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{categoriesFeature, creatorsFeature, deviceFeature},
		EntityRows: []map[string]any{{p.entityKey(): identityRef}},
		Project:    p.Project,
	})
	if err != nil {
		return nil, err
	}

	uctx := &core.UserContext{
		TimeOfDay: TimeOfDayAt(p.now()),
	}
	if len(resp.FeatureVectors) == 0 {
		return uctx, nil
	}

	values := resp.FeatureVectors[0].Values
	uctx.RecentCategoryIDs = stringList(values[categoriesFeature])
	uctx.RecentCreatorIDs = stringList(values[creatorsFeature])
	if device, ok := values[deviceFeature].(string); ok && device != "" {
		uctx.Device = core.DeviceClass(device)
	}

	return uctx, nil
}

// TimeOfDayAt 按小时归一化时段：5-11 晨间、12-16 午后、17-21 晚间、其余夜间。
func TimeOfDayAt(t time.Time) core.TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return core.Morning
	case h >= 12 && h < 17:
		return core.Afternoon
	case h >= 17 && h < 22:
		return core.Evening
	default:
		return core.Night
	}
}

// stringList 兼容特征值的两种形态：字符串列表，或逗号拼接的字符串。
func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case string:
		if val == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

var _ engine.ContextProvider = (*ContextProvider)(nil)
