package rerank

import (
	"context"
	"slices"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/pkg/utils"
)

// Diversity 限制同一类别（默认菜系）在结果中出现的次数。
//
// 按输入顺序遍历，类别计数小于 MaxPerCategory 的才被接纳，接纳满 MaxResults 个即停止。
// 输入条数本身不超过 MaxPerCategory 时原样返回。
// 类别来源优先级：label[LabelKey].Value > meta[LabelKey] > Recipe.Cuisine（LabelKey 为 cuisine 时）。
type Diversity struct {
	LabelKey       string // 默认 "cuisine"
	MaxPerCategory int    // 默认 2
	MaxResults     int    // 默认 3，< 0 表示不限
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	return Apply(items, n.key(), n.maxPerCategory(), n.maxResults()), nil
}

func (n *Diversity) key() string {
	if n.LabelKey == "" {
		return "cuisine"
	}
	return n.LabelKey
}

func (n *Diversity) maxPerCategory() int {
	if n.MaxPerCategory <= 0 {
		return 2
	}
	return n.MaxPerCategory
}

func (n *Diversity) maxResults() int {
	if n.MaxResults == 0 {
		return 3
	}
	return n.MaxResults
}

// Apply 是多样性过滤的纯函数形式，maxResults < 0 表示不限。
func Apply(items []*core.Item, key string, maxPerCategory, maxResults int) []*core.Item {
	if len(items) <= maxPerCategory {
		return slices.DeleteFunc(slices.Clone(items), func(it *core.Item) bool { return it == nil })
	}

	counts := make(map[string]int, 8)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cate := category(it, key)
		if counts[cate] < maxPerCategory {
			out = append(out, it)
			counts[cate]++
		} else {
			it.PutLabel("diversity", utils.NewLabel("capped:"+cate, "rerank"))
		}
		if maxResults >= 0 && len(out) >= maxResults {
			break
		}
	}
	return out
}

func category(it *core.Item, key string) string {
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if s := it.MetaString(key); s != "" {
		return s
	}
	if key == "cuisine" {
		return it.Cuisine()
	}
	return ""
}
