// Package rerank 对排好序的候选做截断与多样性重排。
package rerank

import (
	"context"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/pipeline"
)

// TopNNode 截取前 N 个物品，默认链路中用两次：
//
//	&rank.SimilarityNode{...},           // 排序
//	&rerank.TopNNode{N: 6},              // 候选池
//	&rerank.Diversity{MaxPerCategory: 2}, // 多样性
//	&rerank.TopNNode{N: 3},              // 最终条数
type TopNNode struct {
	// N <= 0 时不截断
	N int

	// Param 非空时优先读取 rctx.Params[Param]（int），便于请求级覆盖
	Param string
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if n.Param != "" && rctx != nil {
		if v, ok := rctx.Params[n.Param].(int); ok && v > 0 {
			limit = v
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
