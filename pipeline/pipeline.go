package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/moodmeal/core"
)

// Hook 在每个 Node 执行后回调，用于打点（耗时、输入输出数量）。
type Hook func(node Node, in, out int, cost time.Duration, err error)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：filter -> rank -> rerank。
type Pipeline struct {
	Nodes []Node
	Hooks []Hook
}

// Run 依次执行各 Node。任一 Node 出错即中止，错误中带上 Node 名称。
// ctx 取消时在 Node 之间返回 ctx.Err()。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		for _, h := range p.Hooks {
			h(node, len(cur), len(next), time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
