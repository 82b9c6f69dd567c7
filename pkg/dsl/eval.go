// Package dsl 是基于 CEL 的候选表达式，供配置与请求中的自定义过滤条件使用。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/moodmeal/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	programs sync.Map // expr -> *Program
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("recipe", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("rctx", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，可并发求值。
//
// 可用变量：
//   - recipe.title / recipe.description / recipe.cuisine / recipe.diet / recipe.meal_time / recipe.cook_time
//   - item.id / item.score / item.features / item.meta
//   - label.<key>（Label 的 Value）
//   - rctx.user_id / rctx.mood_tags / rctx.sentiment / rctx.params
//
// 示例：
//   - `recipe.cook_time <= 20 && recipe.cuisine != "Western"`
//   - `recipe.description.contains("soup")`
//   - `"comfort" in rctx.mood_tags && recipe.meal_time == "Dinner"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，结果类型必须为 bool。相同表达式只编译一次。
func Compile(expr string) (*Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(*Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "compile expression", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("expression must return bool, got %s", ast.OutputType()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	p := &Program{expr: expr, prg: prg}
	actual, _ := programs.LoadOrStore(expr, p)
	return actual.(*Program), nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对一个候选求值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译（带缓存）并求值，空表达式恒为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	recipe := map[string]any{}
	itemMap := map[string]any{}
	labels := map[string]string{}
	if item != nil {
		if r := item.Recipe; r != nil {
			recipe = map[string]any{
				"title":       r.Title,
				"description": r.Description,
				"cuisine":     r.Cuisine,
				"diet":        r.Diet,
				"meal_time":   r.MealTime,
				"cook_time":   int64(r.CookTime),
			}
		}
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		itemMap = map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"features": item.Features,
			"meta":     item.Meta,
		}
	}

	rc := map[string]any{}
	if rctx != nil {
		tags := rctx.MoodTags
		if tags == nil {
			tags = []string{}
		}
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		rc = map[string]any{
			"user_id":   rctx.UserID,
			"mood_tags": tags,
			"sentiment": rctx.Sentiment,
			"params":    params,
		}
	}

	return map[string]any{
		"recipe": recipe,
		"item":   itemMap,
		"label":  labels,
		"rctx":   rc,
	}
}
