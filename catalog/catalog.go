// Package catalog 加载与校验菜谱目录。
//
// 目录是一个带表头的 CSV：title, description, diet, meal_time, cook_time, cuisine。
// 缺失的 description 视为空串，缺失的 cuisine 视为 "Unknown"；
// 无法解析的行被跳过并记录，不会让整个加载失败。
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/pkg/utils"
)

// Columns 是目录期望的列。
var Columns = []string{"title", "description", "diet", "meal_time", "cook_time", "cuisine"}

// RowError 描述一行被跳过的原因，Line 从 1 开始（含表头）。
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Reason) }

// Catalog 是只读的菜谱集合，顺序即文件顺序。
type Catalog struct {
	Recipes []*core.Recipe

	// Columns 是表头中出现的列（小写）
	Columns []string

	// Missing 统计被跳过的空值行，目前只有 cook_time
	Missing map[string]int

	// Skipped 是被跳过的行
	Skipped []RowError

	index map[string]*core.Recipe
}

// New 用内存中的菜谱构建目录，标题重复时 Find 返回第一个。
func New(recipes []*core.Recipe) *Catalog {
	c := &Catalog{
		Recipes: recipes,
		Columns: append([]string(nil), Columns...),
		Missing: map[string]int{},
	}
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	c.index = make(map[string]*core.Recipe, len(c.Recipes))
	for _, r := range c.Recipes {
		if _, ok := c.index[r.Title]; !ok {
			c.index[r.Title] = r
		}
	}
}

// Len 返回菜谱数。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Recipes)
}

// Find 按标题查找菜谱。
func (c *Catalog) Find(title string) (*core.Recipe, bool) {
	if c == nil {
		return nil, false
	}
	r, ok := c.index[title]
	return r, ok
}

// Load 从文件加载目录。文件不存在时返回 NOT_FOUND。
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "recipe file not found at "+path, err)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse 解析 CSV 目录。只有表头缺失或读取失败时返回错误。
func Parse(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return New(nil), nil
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "read catalog header", err)
	}

	pos := make(map[string]int, len(header))
	cols := make([]string, 0, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, dup := pos[name]; dup || name == "" {
			continue
		}
		pos[name] = i
		cols = append(cols, name)
	}

	c := &Catalog{Columns: cols, Missing: map[string]int{}}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				c.Skipped = append(c.Skipped, RowError{Line: pe.Line, Reason: pe.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if isBlank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)

		get := func(col string) string {
			i, ok := pos[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		recipe := &core.Recipe{
			Title:       get("title"),
			Description: get("description"),
			Cuisine:     get("cuisine"),
			Diet:        strings.ToLower(get("diet")),
			MealTime:    utils.TitleCase(get("meal_time")),
		}
		if recipe.Cuisine == "" {
			recipe.Cuisine = core.CuisineUnknown
		}
		raw := get("cook_time")
		if raw == "" {
			if _, ok := pos["cook_time"]; ok {
				c.Missing["cook_time"]++
			}
			c.Skipped = append(c.Skipped, RowError{Line: line, Reason: "missing cook_time"})
			continue
		}
		ct, err := parseMinutes(raw)
		if err != nil {
			c.Skipped = append(c.Skipped, RowError{Line: line, Reason: fmt.Sprintf("invalid cook_time %q", raw)})
			continue
		}
		recipe.CookTime = ct
		c.Recipes = append(c.Recipes, recipe)
	}
	c.reindex()
	return c, nil
}

// parseMinutes 接受整数或整数值的小数（如 "30.0"）。
func parseMinutes(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("cook_time %v is not whole minutes", f)
	}
	return int(f), nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
