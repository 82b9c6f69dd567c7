// Package moodmeal 根据一句心情描述推荐餐食。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Filter → Rank → ReRank），可由配置声明
// - Labels-first: 过滤、排序、多样性的决策都以 label 记录在 Item 上，便于解释与观测
// - 画像学习: 1-5 分反馈更新菜系亲和度，影响后续排序
//
// 常用入口：
//
//	app, err := bootstrap.New(ctx, config.Default())
//	res, err := app.Recommender.Recommend(ctx, app.Catalog, recommend.Request{MoodText: "stressed and tired"})
package moodmeal

import (
	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/recommend"
)

// 轻量 facade：便于直接 import "moodmeal" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind

	Recipe      = core.Recipe
	Item        = core.Item
	UserProfile = core.UserProfile
	Constraints = core.Constraints

	Recommender = recommend.Recommender
	Request     = recommend.Request
	Result      = recommend.Result
)

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
