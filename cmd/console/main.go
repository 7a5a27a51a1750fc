package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/wuxia-session/internal/app"
	"github.com/jwebster45206/wuxia-session/internal/config"
	"github.com/jwebster45206/wuxia-session/internal/logger"
	"github.com/jwebster45206/wuxia-session/internal/remote"
	"github.com/jwebster45206/wuxia-session/pkg/session"
)

const (
	logFileName  = "wuxia-console.log"
	storeTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.SetupTo(logFile, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open preview store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	src, err := app.NewSource(cfg, store, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data source: %v\n", err)
		os.Exit(1)
	}
	if client, ok := src.(*remote.Client); ok && !client.Health(ctx) {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s. Please ensure the API is running.\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}
	sess := session.New(src, session.Options{
		DefaultModel:      cfg.DefaultModel,
		AuthRedirectDelay: cfg.AuthRedirectDelay,
		TipInterval:       cfg.TipInterval,
		OnTip:             func(tip string) { send(tipMsg(tip)) },
		OnAuthExpired:     func() { send(authExpiredMsg{}) },
		Logger:            log,
	})
	defer sess.Close()

	program = tea.NewProgram(NewConsoleUI(sess, cfg.RequestTimeout),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
