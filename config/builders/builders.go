// Package builders 注册内置 Node 的配置构建器。
package builders

import (
	"fmt"

	"github.com/rushteam/moodmeal/config"
	"github.com/rushteam/moodmeal/filter"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/pkg/conv"
	"github.com/rushteam/moodmeal/rank"
	"github.com/rushteam/moodmeal/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.constraint", BuildConstraintNode)
	config.Register("filter.expr", BuildExprNode)
	config.Register("filter.disliked", BuildDislikedNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

// SimilarityBuilder 返回绑定了向量源的 rank.similarity 构建器：
//
//	f := config.DefaultFactory()
//	f.Register("rank.similarity", builders.SimilarityBuilder(provider))
func SimilarityBuilder(src rank.VectorSource) pipeline.NodeBuilder {
	return func(cfg map[string]any) (pipeline.Node, error) {
		if src == nil {
			return nil, fmt.Errorf("rank.similarity: vector source is nil")
		}
		return &rank.SimilarityNode{
			Vectors:     src,
			Concurrency: conv.ConfigGetInt(cfg, "concurrency", 0),
		}, nil
	}
}

// BuildFilterNode 构建组合过滤节点，config.filters 为过滤器列表：
//
//	filters:
//	  - type: constraint
//	  - type: expr
//	    expr: 'recipe.cook_time <= 30'
//	  - type: disliked
//	  - type: blacklist
//	    titles: ["Nihari"]
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		f, err := buildFilter(conv.ConfigGet(filterMap, "type", ""), filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filter.NewFilterNode(filters...), nil
}

func buildFilter(filterType string, cfg map[string]any) (filter.Filter, error) {
	switch filterType {
	case "constraint":
		return filter.NewConstraintFilter(), nil
	case "expr":
		return filter.NewExprFilter(conv.ConfigGet(cfg, "expr", ""), conv.ConfigGet(cfg, "from_request", false))
	case "disliked":
		return filter.NewDislikedFilter(), nil
	case "blacklist":
		titles := conv.SliceAnyToString(cfg["titles"])
		if titles == nil {
			titles = []string{}
		}
		return filter.NewBlacklistFilter(titles), nil
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}

func single(filterType string) pipeline.NodeBuilder {
	return func(cfg map[string]any) (pipeline.Node, error) {
		f, err := buildFilter(filterType, cfg)
		if err != nil {
			return nil, err
		}
		return filter.NewFilterNode(f), nil
	}
}

func BuildConstraintNode(cfg map[string]any) (pipeline.Node, error) { return single("constraint")(cfg) }
func BuildExprNode(cfg map[string]any) (pipeline.Node, error)       { return single("expr")(cfg) }
func BuildDislikedNode(cfg map[string]any) (pipeline.Node, error)   { return single("disliked")(cfg) }
func BuildBlacklistNode(cfg map[string]any) (pipeline.Node, error)  { return single("blacklist")(cfg) }

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must not be negative")
	}
	return &rerank.TopNNode{N: n, Param: conv.ConfigGet(cfg, "param", "")}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "cuisine")
	if labelKey == "" {
		labelKey = "cuisine"
	}
	return &rerank.Diversity{
		LabelKey:       labelKey,
		MaxPerCategory: conv.ConfigGetInt(cfg, "max_per_category", 2),
		MaxResults:     conv.ConfigGetInt(cfg, "max_results", 3),
	}, nil
}
