package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"calcpad/internal/config"
	"calcpad/internal/database"
	"calcpad/internal/database/repository"
	"calcpad/internal/observability"
	"calcpad/internal/service"
	"calcpad/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "calcpad:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// taken before the log path default below, so saves only persist what the user set
	save := savePrefs(cfg)

	// the terminal belongs to the keypad, so logs always go to a file
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.Getenv("HOME"), ".local", "state", "calcpad", "calcpad.log")
	}
	if err := observability.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer observability.SyncLogger()
	logger := observability.Logger

	opts := tui.Options{
		Ctx:       ctx,
		SessionID: "tui-" + uuid.NewString(),
		Logger:    logger,
		ShowHelp:  cfg.UI.ShowHelp,
		KeyGap:    cfg.UI.KeypadGap,
		SavePrefs: save,
	}

	if cfg.Tape.Enabled {
		db, err := database.OpenMigrated(cfg.Tape.Path)
		if err != nil {
			return fmt.Errorf("tape: %w", err)
		}
		defer db.Close()
		tape := &service.TapeService{Entries: repository.NewTapeRepo(db)}
		opts.Recorder = tape
		opts.Tape = tape
	}

	logger.Info("keypad started",
		zap.String("session_id", opts.SessionID),
		zap.Bool("tape", cfg.Tape.Enabled),
	)

	if _, err := tea.NewProgram(tui.New(opts), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("keypad: %w", err)
	}
	return nil
}
