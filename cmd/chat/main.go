package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"ppm-intake-be/internal/bootstrap"
	"ppm-intake-be/internal/config"
	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/pkg/database"
	"ppm-intake-be/pkg/intake/cache"
	"ppm-intake-be/pkg/intake/record"
	"ppm-intake-be/pkg/intake/session"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	rdb := bootstrap.NewRedisClient(cfg.App.RedisURL)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	manager, _, err := bootstrap.NewManagerFor(db, rdb, record.NopNotifier{}, cfg, sysLogger)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}

	ctx := context.Background()
	defer manager.CloseAll(ctx)

	created, err := manager.CreateSession(ctx)
	if err != nil {
		log.Fatalf("Unable to create session: %v", err)
	}

	color.Cyan("University Information Collector")
	fmt.Println("Commands: 'exit', '/history', '/status'")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Session ID: %s\n\n", created.SessionID)
	color.Green("Assistant: %s", created.Greeting)

	short := created.SessionID
	if len(short) > 8 {
		short = short[:8]
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("\n[%s] You: ", short)
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"):
			color.Cyan("Goodbye!")
			return
		case input == "/history":
			printHistory(ctx, manager, created.SessionID)
			continue
		case input == "/status":
			printStatus(ctx, manager, created.SessionID)
			continue
		}

		res, err := manager.SendMessage(ctx, created.SessionID, input)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		marker := ""
		if res.IsCached {
			marker = " (cached)"
		}
		color.Green("\nAssistant%s: %s", marker, res.Reply)

		completion, err := manager.CompletionStatus(ctx, created.SessionID)
		if err == nil {
			color.Yellow("\nProgress: %s", completion)
		}
		if res.IsComplete {
			color.Cyan("✅ All information collected!")
		}
	}
}

func printHistory(ctx context.Context, manager *session.Manager, sessionID string) {
	history, err := manager.History(ctx, sessionID, cache.Page{})
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	color.Yellow("\nChat History (%d conversations):", len(history))
	for i, ex := range history {
		fmt.Printf("%d. You: %s\n", i+1, ex.UserText)
		fmt.Printf("   Assistant: %s\n", ex.AssistantText)
		fmt.Println(strings.Repeat("-", 40))
	}
}

func printStatus(ctx context.Context, manager *session.Manager, sessionID string) {
	status, err := manager.Status(ctx, sessionID)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	color.Yellow("\nState: %s, %s, %d conversations (%d cache hits, %d misses)", status.State, status.Completion,
		status.ConversationCount, status.CacheStats.Hits, status.CacheStats.Misses)
	for _, f := range manager.Schema().Fields() {
		value := status.Values.Get(f.ID)
		if value == "" {
			value = "-"
		}
		fmt.Printf("  %s: %s\n", f.Label, value)
	}
}
