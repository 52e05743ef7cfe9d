// Command crewchat is the terminal client for crew chat rooms.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/audio"
	"github.com/aeolun/crewchat/pkg/client/ui"
	tea "github.com/charmbracelet/bubbletea"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", client.DefaultConfigPath, "Path to config file")
	token := flag.String("token", "", "Session token (overrides config)")
	apiURL := flag.String("api", "", "API base URL (overrides config)")
	demo := flag.Bool("demo", false, "Run against built-in demo data, no server needed")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crewchat %s\n", Version)
		return
	}

	if err := client.LoadEnvFile(".env"); err != nil {
		log.Fatalf("%v", err)
	}

	cfg, err := client.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *token != "" {
		cfg.Server.Token = *token
	}
	if *apiURL != "" {
		cfg.Server.APIURL = *apiURL
	}

	logger, closeLog, err := openLog(cfg.Paths.LogPath)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()
	logger.Printf("crewchat %s starting", Version)

	statePath, err := client.ExpandPath(cfg.Paths.StatePath)
	if err != nil {
		log.Fatalf("Failed to resolve state path: %v", err)
	}
	state, err := client.OpenState(statePath)
	if err != nil {
		log.Fatalf("Failed to open state database: %v", err)
	}
	defer state.Close()

	metrics := client.NewMetrics()
	if cfg.Metrics.ListenAddr != "" {
		srv, err := client.ServeMetrics(cfg.Metrics.ListenAddr, metrics, logger)
		if err != nil {
			log.Fatalf("Failed to start metrics server: %v", err)
		}
		defer srv.Close()
	}

	var (
		session  client.Session
		backend  client.Backend
		realtime client.RealtimeInterface
	)
	if *demo {
		session = client.DemoSession
		backend = client.NewDemoBackend()
	} else {
		if cfg.Server.Token == "" {
			fmt.Fprintln(os.Stderr, "No session token. Set server.token in the config, CREWCHAT_SERVER_TOKEN, or pass -token. Use -demo to try it without a server.")
			os.Exit(2)
		}
		session, err = client.SessionFromToken(cfg.Server.Token)
		if err != nil {
			log.Fatalf("Invalid session token: %v", err)
		}

		api := client.NewAPIClient(cfg.Server.APIURL, session.Token, cfg.RequestTimeout())
		api.SetLogger(logger)
		api.SetMetrics(metrics)
		backend = api

		if cfg.Server.WSURL != "" {
			rt := client.NewRealtime(cfg.Server.WSURL, session.Token)
			rt.SetLogger(logger)
			rt.SetMetrics(metrics)
			defer rt.Close()
			realtime = rt
		}
	}

	recorder := audio.NewRecorder(audio.NewExecDevice(cfg.Audio.RecordCommand), cfg.Audio.MimeType)

	settings := ui.DefaultSettings()
	settings.Version = Version
	settings.Notifications = cfg.UI.Notifications
	settings.IdleNotifyAfter = cfg.IdleNotifyAfter()
	if cfg.UI.TimeFormat != "" {
		settings.TimeFormat = cfg.UI.TimeFormat
	}
	if home, err := os.UserHomeDir(); err == nil {
		settings.FileDir = home
	}

	model := ui.NewModel(session, backend, state, realtime, recorder, settings, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Printf("Program exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLog sends the logger to the configured file. The terminal belongs to the UI.
func openLog(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	path, err := client.ExpandPath(path)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}
