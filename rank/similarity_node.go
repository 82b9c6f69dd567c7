// Package rank 对候选打分排序。
package rank

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/embedding"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/pkg/utils"
)

// 写入 Item.Features 的特征名。
const (
	FeatureSimilarity   = "similarity"
	FeatureCuisineBoost = "cuisine_boost"
	FeatureFinalScore   = "final_score"
)

// VectorSource 提供心情向量与菜谱向量，embedding.Provider 是默认实现。
type VectorSource interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	RecipeVector(ctx context.Context, r *core.Recipe, enhanced bool) ([]float64, error)
}

// SimilarityNode 按心情向量与菜谱向量的余弦相似度排序。
//   - 写入 features：similarity / cuisine_boost / final_score
//   - 写入 labels：rank_model
//   - 学习开启且有画像时 final = similarity + 画像中该菜系的亲和度，否则 final = similarity
//   - 稳定排序，分数相同保持目录顺序
type SimilarityNode struct {
	Vectors VectorSource

	// Concurrency 是并发计算菜谱向量的上限，<= 0 时为 4
	Concurrency int
}

func (n *SimilarityNode) Name() string        { return "rank.similarity" }
func (n *SimilarityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Vectors == nil || len(items) == 0 {
		return items, nil
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}

	if rctx.MoodVector == nil {
		v, err := n.Vectors.Embed(ctx, rctx.MoodText)
		if err != nil {
			return nil, fmt.Errorf("embed mood text: %w", err)
		}
		rctx.MoodVector = v
	}

	vectors := make([][]float64, len(items))
	limit := n.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, it := range items {
		if it == nil || it.Recipe == nil {
			continue
		}
		i, it := i, it
		g.Go(func() error {
			v, err := n.Vectors.RecipeVector(gctx, it.Recipe, rctx.UseEnhanced)
			if err != nil {
				return fmt.Errorf("embed recipe %q: %w", it.ID, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	model := "similarity"
	if rctx.Personalized() {
		model = "similarity+cuisine"
	}
	for i, it := range items {
		if it == nil || vectors[i] == nil {
			continue
		}
		// 普通心情向量与增强菜谱向量比较时，心情侧补零
		mood := embedding.Pad(rctx.MoodVector, max(len(rctx.MoodVector), len(vectors[i])))
		sim := embedding.CosineSimilarity(mood, vectors[i])

		var boost float64
		if rctx.Personalized() {
			boost = rctx.User.CuisineAffinity(it.Cuisine())
		}
		if it.Features == nil {
			it.Features = make(map[string]float64, 3)
		}
		it.Features[FeatureSimilarity] = sim
		it.Features[FeatureCuisineBoost] = boost
		it.Features[FeatureFinalScore] = sim + boost
		it.Score = sim + boost
		it.PutLabel("rank_model", utils.NewLabel(model, "rank"))
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
