// Command moodmeal 是终端版心情点餐推荐。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/rushteam/moodmeal/bootstrap"
	"github.com/rushteam/moodmeal/config"
	"github.com/rushteam/moodmeal/pkg/logging"
	"github.com/rushteam/moodmeal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, logPath, catalogPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./moodmeal.yaml or ~/.config/moodmeal/config.yaml)")
	flag.StringVar(&logPath, "log", "", "Write logs to this file (logs are discarded by default)")
	flag.StringVar(&catalogPath, "catalog", "", "Recipe CSV file (overrides config; built-in sample if empty)")
	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}

	// 日志写终端会打乱界面，默认丢弃
	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		out = f
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "json", Timestamp: true, Output: out})

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()
	for _, w := range app.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	model := tui.New(tui.NewService(app.Recommender, app.Catalog), tui.Options{
		UseEnhanced:     cfg.Recommend.UseEnhanced,
		LearningEnabled: cfg.Learning.Enabled,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}
