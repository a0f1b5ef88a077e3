package rerank

import (
	"math/rand"
	"time"

	"github.com/rushteam/feedkit/core"
)

// ExploreExploit 在“个性化列表”与“探索列表”之间做概率交织：
// 每个位置以 ExploitRatio 的概率取个性化列表头部，否则取探索列表头部；
// 一边取空时退回另一边，已放入的内容 ID 始终跳过。
//
// 随机源可注入（seedable）：测试可以用固定种子断言精确的交织序列。
// 不设置时惰性初始化一个时间种子的源。
type ExploreExploit struct {
	// ExploitRatio 取个性化列表的概率，默认 0.8
	ExploitRatio float64

	// Rand 可注入随机源；注意 *rand.Rand 非并发安全，按请求或按 goroutine 持有
	Rand *rand.Rand
}

func (s *ExploreExploit) rng() *rand.Rand {
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s.Rand
}

func (s *ExploreExploit) ratio() float64 {
	if s.ExploitRatio <= 0 || s.ExploitRatio > 1 {
		return core.DefaultExploitRatio
	}
	return s.ExploitRatio
}

// Interleave 交织两个有序列表，结果长度 <= limit 且内容 ID 不重复。
func (s *ExploreExploit) Interleave(
	personalized, exploration []*core.Candidate,
	limit int,
) []*core.Candidate {
	if limit <= 0 {
		return nil
	}

	rng := s.rng()
	ratio := s.ratio()

	seen := make(map[string]struct{}, limit)
	out := make([]*core.Candidate, 0, limit)

	pi, ei := 0, 0
	for len(out) < limit {
		// 先把两边头部越过已放入的 ID
		pi = skipSeen(personalized, pi, seen)
		ei = skipSeen(exploration, ei, seen)
		if pi >= len(personalized) && ei >= len(exploration) {
			break
		}

		takePersonalized := rng.Float64() < ratio
		// 一边取空时退回另一边
		if pi >= len(personalized) {
			takePersonalized = false
		} else if ei >= len(exploration) {
			takePersonalized = true
		}

		var c *core.Candidate
		if takePersonalized {
			c = personalized[pi]
			pi++
		} else {
			c = exploration[ei]
			ei++
		}

		seen[c.ContentID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func skipSeen(cands []*core.Candidate, i int, seen map[string]struct{}) int {
	for i < len(cands) {
		c := cands[i]
		if c == nil {
			i++
			continue
		}
		if _, dup := seen[c.ContentID]; !dup {
			return i
		}
		i++
	}
	return i
}
