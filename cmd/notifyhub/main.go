package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notification-center/internal/app"
	"github.com/nhle/notification-center/internal/credential"
	"github.com/nhle/notification-center/internal/desktop"
	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/prefs"
	"github.com/nhle/notification-center/internal/push"
	"github.com/nhle/notification-center/internal/remote"
	"github.com/nhle/notification-center/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifyhub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// Persist a generated device id so the push stream identifies this
	// client consistently across restarts.
	if cfg.Desktop.DeviceID == "" {
		if err := model.SaveConfig(model.DefaultConfigPath(), cfg); err != nil {
			log.Printf("saving config: %v", err)
		}
	}

	// The alternate screen owns the terminal; background errors go to a
	// log file instead.
	logPath := filepath.Join(filepath.Dir(model.DefaultConfigPath()), "notifyhub.log")
	if f, err := tea.LogToFile(logPath, "notifyhub"); err == nil {
		defer f.Close()
		log.SetOutput(f)
	}

	token, err := credential.Get("api-token")
	if err != nil || token == "" {
		return fmt.Errorf("no API token found; store one with the system keyring under %q", "api-token")
	}

	cachePath := filepath.Join(filepath.Dir(model.DefaultConfigPath()), "cache.db")
	cache, err := store.NewCache(cachePath)
	if err != nil {
		// The cache only backs the offline paint; run without it.
		log.Printf("opening cache: %v", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	client := remote.NewClient(cfg.Server.BaseURL, token)
	svc := remote.NewHubService(client, cfg.Server.UserID, cfg.Server.WorkspaceID)

	var snapshot prefs.Snapshot
	if cache != nil {
		snapshot = cache
	}
	prefsSvc := prefs.New(svc, snapshot, cfg.Server.UserID, cfg.Server.WorkspaceID)

	feedStore := feed.New(svc, prefsSvc.Current, cfg.Feed.PageSize)
	subscriber := push.NewSubscriber(
		cfg.Server.BaseURL, token,
		cfg.Server.UserID, cfg.Server.WorkspaceID, cfg.Desktop.DeviceID,
	)
	adapter := desktop.New(desktop.BeeepPlatform{}, prefsSvc.Current)

	root := app.New(app.Deps{
		Config:  *cfg,
		Cache:   cache,
		Feed:    feedStore,
		Prefs:   prefsSvc,
		Push:    subscriber,
		Desktop: adapter,
	})

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
