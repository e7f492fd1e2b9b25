// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/channels"
	"github.com/zhufengning/lingbot/pkg/command"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/janitor"
	"github.com/zhufengning/lingbot/pkg/jieqian"
	"github.com/zhufengning/lingbot/pkg/lingqian"
	"github.com/zhufengning/lingbot/pkg/logger"
	"github.com/zhufengning/lingbot/pkg/permission"
	"github.com/zhufengning/lingbot/pkg/providers"
)

const version = "0.1.0"
const logo = "🎐"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "onboard":
		onboard()
	case "gateway":
		gatewayCmd()
	case "status":
		statusCmd()
	case "draw":
		drawCmd()
	case "version", "--version", "-v":
		fmt.Printf("%s lingbot v%s\n", logo, version)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s lingbot - Daily fortune slip bot v%s\n\n", logo, version)
	fmt.Println("Usage: lingbot <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  onboard     Initialize lingbot configuration and data directories")
	fmt.Println("  gateway     Start the bot on all enabled channels")
	fmt.Println("  status      Show configuration status")
	fmt.Println("  draw <id>   Draw today's slip for a user ID (offline)")
	fmt.Println("  version     Show version information")
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lingbot", "config.json")
}

func loadConfigWithEnv() (*config.Config, error) {
	if err := loadEnvFile(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return config.LoadConfig(getConfigPath())
}

func onboard() {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		var response string
		fmt.Scanln(&response)
		if response != "y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	os.MkdirAll(cfg.DataPath(), 0755)
	os.MkdirAll(cfg.CatalogPath(), 0755)

	fmt.Printf("%s lingbot is ready!\n", logo)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Put the slip text files into", cfg.CatalogPath())
	fmt.Println("  2. Enable a channel and add provider endpoints in", configPath)
	fmt.Println("  3. Start: lingbot gateway")
}

func buildRegistry(cfg *config.Config) *providers.Registry {
	registry := providers.NewRegistry()
	for _, ep := range cfg.Providers.Endpoints {
		if ep.ID == "" || ep.APIBase == "" {
			continue
		}
		registry.Register(ep.ID, providers.NewOpenAIProvider(ep.APIKey, ep.APIBase, ep.Model, ep.Proxy))
		logger.InfoCF("main", "Provider registered", map[string]interface{}{
			"id":    ep.ID,
			"model": ep.Model,
		})
	}
	registry.SetDefault(cfg.Providers.Default)
	return registry
}

func gatewayCmd() {
	for _, arg := range os.Args[2:] {
		if arg == "--debug" || arg == "-d" {
			logger.SetLevel(logger.DEBUG)
			fmt.Println("🔍 Debug mode enabled")
			break
		}
	}

	cfg, err := loadConfigWithEnv()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	catalog := lingqian.LoadCatalog(cfg.CatalogPath())
	fmt.Printf("✓ Loaded %d slips from %s\n", catalog.Size(), cfg.CatalogPath())

	draws := lingqian.NewStore(cfg.DataPath(), catalog)
	interps := jieqian.NewStore(cfg.DataPath())
	gate := lingqian.NewFortuneGate(
		cfg.Fortune.Required,
		cfg.Fortune.HistoryPath,
		cfg.Fortune.Ranges,
		cfg.Fortune.ShangRate,
		cfg.Fortune.ZhongRate,
	)

	registry := buildRegistry(cfg)
	interpreter := jieqian.NewInterpreter(
		registry,
		interps,
		jieqian.NewGuard(),
		cfg.Jieqian.ProviderID,
		cfg.PersonaPrompt(cfg.Jieqian.Persona),
		cfg.Jieqian.StylePrompt,
		time.Duration(cfg.Jieqian.TimeoutSeconds)*time.Second,
	)

	perms := permission.NewChecker(cfg.Admins, cfg.Whitelist.GroupWhitelist, cfg.Whitelist.Groups)

	msgBus := bus.NewMessageBus()
	router := command.NewRouter(cfg, msgBus, catalog, draws, gate, interps, interpreter, perms)

	channelManager, err := channels.NewManager(cfg, msgBus)
	if err != nil {
		fmt.Printf("Error creating channel manager: %v\n", err)
		os.Exit(1)
	}

	if onebot, ok := channelManager.GetChannel("onebot"); ok {
		if oc, ok := onebot.(*channels.OneBotChannel); ok {
			router.RegisterMemberDirectory("onebot", oc)
		}
	}

	enabledChannels := channelManager.GetEnabledChannels()
	if len(enabledChannels) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", enabledChannels)
	} else {
		fmt.Println("⚠ Warning: No channels enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pruner *janitor.Service
	if cfg.Janitor.Enabled {
		pruner = janitor.NewService(cfg.DataPath(), cfg.Janitor.Cron, cfg.Janitor.RetentionDays, draws, interps)
		if err := pruner.Start(); err != nil {
			fmt.Printf("Error starting janitor: %v\n", err)
		} else {
			fmt.Println("✓ Janitor started")
		}
	}

	if err := channelManager.StartAll(ctx); err != nil {
		fmt.Printf("Error starting channels: %v\n", err)
	}

	go router.Run(ctx)

	fmt.Println("✓ Gateway started")
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	if pruner != nil {
		pruner.Stop()
	}
	channelManager.StopAll(context.Background())
	fmt.Println("✓ Gateway stopped")
}

func statusCmd() {
	cfg, err := loadConfigWithEnv()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	configPath := getConfigPath()
	fmt.Printf("%s lingbot Status\n\n", logo)

	check := func(path string) string {
		if _, err := os.Stat(path); err == nil {
			return "✓"
		}
		return "✗"
	}
	fmt.Println("Config:", configPath, check(configPath))
	fmt.Println("Data dir:", cfg.DataPath(), check(cfg.DataPath()))
	fmt.Println("Catalog dir:", cfg.CatalogPath(), check(cfg.CatalogPath()))

	catalog := lingqian.LoadCatalog(cfg.CatalogPath())
	fmt.Printf("Slips loaded: %d\n", catalog.Size())

	if len(cfg.Providers.Endpoints) == 0 {
		fmt.Println("Providers: none configured")
	}
	for _, ep := range cfg.Providers.Endpoints {
		mark := "✓"
		if ep.APIKey == "" {
			mark = "no key"
		}
		def := ""
		if ep.ID == cfg.Providers.Default {
			def = " (default)"
		}
		fmt.Printf("Provider %s%s: %s %s\n", ep.ID, def, ep.Model, mark)
	}

	fmt.Println("Channels:")
	fmt.Printf("  onebot: enabled=%v\n", cfg.Channels.OneBot.Enabled)
	fmt.Printf("  telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Printf("  discord: enabled=%v\n", cfg.Channels.Discord.Enabled)
	fmt.Printf("  terminal: enabled=%v\n", cfg.Channels.Terminal.Enabled)
}

// drawCmd draws (or shows) today's slip for a user without starting
// any channel. Handy for checking the catalog and data files.
func drawCmd() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: lingbot draw <user-id>")
		os.Exit(1)
	}
	userID := os.Args[2]

	cfg, err := loadConfigWithEnv()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	catalog := lingqian.LoadCatalog(cfg.CatalogPath())
	draws := lingqian.NewStore(cfg.DataPath(), catalog)

	rec, err := draws.DrawOrGet(userID, nil)
	if err != nil {
		fmt.Printf("Draw failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("第 %s 签 %s\n", rec.QianxuChinese, rec.Qianming)
	fmt.Printf("吉凶: %s\n", rec.Jixiong)
	fmt.Printf("宫位: %s\n", rec.Gongwei)
}
