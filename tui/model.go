// Package tui 是基于 Bubble Tea 的终端前端：输入心情、查看推荐、打分反馈。
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/filter"
	"github.com/rushteam/moodmeal/recommend"
)

// 过滤器的可选值，按快捷键循环切换。
var (
	dietChoices     = []string{filter.AnyDiet, "veg", "non-veg"}
	mealChoices     = []string{"", core.MealBreakfast, core.MealLunch, core.MealDinner}
	cuisineChoices  = []string{filter.AllCuisine, core.CuisineDesi, core.CuisineArabic, core.CuisineWestern}
	cookTimeChoices = []int{0, 15, 30, 60}
)

type focus int

const (
	focusInput focus = iota
	focusResults
)

// Options 是 Model 的初始开关。
type Options struct {
	UseEnhanced     bool
	LearningEnabled bool
	Timeout         time.Duration // 单次推荐超时，默认 10s
}

// Model 是 TUI 的 Bubble Tea 模型。
type Model struct {
	service  Service
	input    textinput.Model
	viewport viewport.Model
	focus    focus
	ready    bool

	result   *recommend.Result
	cursor   int
	status   string
	warnings []string
	rated    map[string]int
	showInfo bool

	diet, meal, cuisine, cookTime int
	useEnhanced, learning         bool
	timeout                       time.Duration
}

// New 创建 Model。
func New(service Service, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "How are you feeling? e.g. stressed and tired after work"
	ti.CharLimit = 500
	ti.Focus()
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return Model{
		service:     service,
		input:       ti,
		viewport:    viewport.New(0, 0),
		status:      "Describe your mood and press Enter.",
		rated:       map[string]int{},
		useEnhanced: opts.UseEnhanced,
		learning:    opts.LearningEnabled,
		timeout:     opts.Timeout,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		reserved := 4 + fh + 1
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if handled := m.handleKey(msg); handled {
			m.refresh()
			return m, nil
		}
	}
	if m.focus != focusInput {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey 处理全局与结果区快捷键，返回 true 表示按键已消费。
func (m *Model) handleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "tab":
		m.toggleFocus()
		return true
	case "ctrl+e":
		m.useEnhanced = !m.useEnhanced
		m.status = "Enhanced embeddings: " + onOff(m.useEnhanced)
		return true
	case "ctrl+l":
		m.learning = !m.learning
		m.status = "Preference learning: " + onOff(m.learning)
		return true
	case "ctrl+g":
		m.diet = (m.diet + 1) % len(dietChoices)
		return true
	case "ctrl+t":
		m.meal = (m.meal + 1) % len(mealChoices)
		return true
	case "ctrl+u":
		m.cuisine = (m.cuisine + 1) % len(cuisineChoices)
		return true
	case "ctrl+k":
		m.cookTime = (m.cookTime + 1) % len(cookTimeChoices)
		return true
	case "ctrl+p":
		m.showInfo = !m.showInfo
		return true
	case "ctrl+r":
		m.resetProfile()
		return true
	case "enter":
		if m.focus == focusInput {
			m.recommend()
			return true
		}
	}

	if m.focus != focusResults {
		return false
	}
	switch key := msg.String(); key {
	case "down", "j":
		if n := m.count(); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case "up", "k":
		if n := m.count(); n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
	case "1", "2", "3", "4", "5":
		m.rate(int(key[0] - '0'))
	case "esc":
		m.toggleFocus()
	}
	return true
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusResults
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

// Request 返回按当前输入与开关组装的推荐请求。
func (m Model) Request() recommend.Request {
	return recommend.Request{
		MoodText: strings.TrimSpace(m.input.Value()),
		Constraints: core.Constraints{
			Diet:        dietChoices[m.diet],
			MealTime:    mealChoices[m.meal],
			MaxCookTime: cookTimeChoices[m.cookTime],
			Cuisine:     cuisineChoices[m.cuisine],
		},
		UseEnhanced:     m.useEnhanced,
		LearningEnabled: m.learning,
	}
}

func (m *Model) recommend() {
	req := m.Request()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	res, err := m.service.Recommend(ctx, req)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.result = nil
		return
	}
	m.result = res
	m.cursor = 0
	m.rated = map[string]int{}
	m.warnings = res.Warnings
	if len(res.Recommendations) > 0 {
		m.status = fmt.Sprintf("%d meals for %q. Tab to rate.", len(res.Recommendations), req.MoodText)
	} else {
		m.status = "No recommendations."
	}
}

func (m *Model) rate(rating int) {
	if m.count() == 0 {
		return
	}
	rec := m.result.Recommendations[m.cursor]
	_, err := m.service.Feedback(context.Background(), rec.Recipe.Title, rating, m.result.Tags)
	switch {
	case err == nil:
		m.rated[rec.Recipe.Title] = rating
		m.status = fmt.Sprintf("Rated %s %d/5. Thanks!", rec.Recipe.Title, rating)
	case core.IsPersistence(err):
		m.rated[rec.Recipe.Title] = rating
		m.status = "Rated, but could not save preferences: " + err.Error()
	default:
		m.status = "Error: " + err.Error()
	}
}

func (m *Model) resetProfile() {
	if err := m.service.ResetProfile(context.Background()); err != nil {
		m.status = "Reset failed: " + err.Error()
		return
	}
	m.rated = map[string]int{}
	m.status = "Preferences reset."
}

func (m Model) count() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Recommendations)
}

func (m *Model) refresh() {
	if m.showInfo {
		m.viewport.SetContent(m.renderProfile())
		return
	}
	m.viewport.SetContent(m.renderResults())
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("MoodMeal")
	filters := mutedStyle.Render(m.renderFilters())
	input := boxStyle.Render(m.input.View())
	body := boxStyle.Render(m.viewport.View())
	status := statusStyle.Render(m.status)
	help := mutedStyle.Render("enter: recommend  tab: focus  1-5: rate  ctrl+e/l: enhanced/learning  ctrl+g/t/u/k: filters  ctrl+p: profile  ctrl+r: reset")
	return strings.Join([]string{header, filters, input, body, status, help}, "\n")
}

func (m Model) renderFilters() string {
	meal := mealChoices[m.meal]
	if meal == "" {
		meal = "Any"
	}
	cook := "Any"
	if c := cookTimeChoices[m.cookTime]; c > 0 {
		cook = fmt.Sprintf("<= %d min", c)
	}
	return fmt.Sprintf("diet: %s | meal: %s | cuisine: %s | cook time: %s | enhanced: %s | learning: %s",
		dietChoices[m.diet], meal, cuisineChoices[m.cuisine], cook, onOff(m.useEnhanced), onOff(m.learning))
}

func (m Model) renderResults() string {
	if m.result == nil {
		return "No results yet."
	}
	var b strings.Builder
	if len(m.result.Tags) > 0 {
		b.WriteString(tagStyle.Render(strings.Join(m.result.Tags, " · ")))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s (sentiment %.2f)\n\n", m.result.Summary, m.result.Sentiment)
	for _, w := range m.warnings {
		b.WriteString(warnStyle.Render("! " + w))
		b.WriteString("\n")
	}
	for i, rec := range m.result.Recommendations {
		r := rec.Recipe
		line := fmt.Sprintf("%d. %s  [%s · %s · %d min]  match %.0f%%",
			i+1, r.Title, r.Cuisine, r.MealTime, r.CookTime, rec.Similarity*100)
		if rec.CuisineBoost != 0 {
			line += fmt.Sprintf("  boost %+.2f", rec.CuisineBoost)
		}
		if rating, ok := m.rated[r.Title]; ok {
			line += fmt.Sprintf("  rated %d/5", rating)
		}
		if i == m.cursor && m.focus == focusResults {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
		if r.Description != "" {
			b.WriteString(mutedStyle.Render("     " + r.Description))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderProfile() string {
	s, ok := m.service.Summary()
	if !ok {
		return "Preference learning is disabled."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your taste profile"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Feedback given:   %d (last 7 days: %d)\n", s.TotalFeedback, s.RecentActivity)
	fmt.Fprintf(&b, "Liked / disliked: %d / %d\n", s.LikedRecipes, s.DislikedRecipes)
	fmt.Fprintf(&b, "Favorite cuisine: %s\n", s.FavoriteCuisine)
	fmt.Fprintf(&b, "Mood patterns:    %d\n", s.MoodPatterns)
	fmt.Fprintf(&b, "Profile age:      %d days\n\n", s.ProfileAgeDays)
	for _, c := range core.DefaultCuisines {
		if v, ok := s.CuisineScores[c]; ok {
			fmt.Fprintf(&b, "  %-8s %s %+.2f\n", c, bar(v), v)
		}
	}
	return b.String()
}

// bar 把 [-1,1] 的亲和度画成 10 格条形。
func bar(v float64) string {
	n := int((v + 1) * 5)
	n = min(max(n, 0), 10)
	return strings.Repeat("█", n) + strings.Repeat("░", 10-n)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
