package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"choromap/internal/config"
	"choromap/internal/logging"
	"choromap/internal/tui"
)

func main() {
	cfgPath := flag.String("config", "choromap.yaml", "path to the config file")
	source := flag.String("source", "", "GeoJSON source (file path or http(s) URL), overrides config")
	logPath := flag.String("log", "", "log file path, overrides config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Source = *source
	}
	if *logPath != "" {
		cfg.Log.Path = *logPath
	}

	log, err := logging.Setup(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	log.Info("starting", "source", cfg.Source)

	m := tui.New(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	m.Notifier().Bind(p.Send)

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
