package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()

	store, err := OpenStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer store.Close()

	var export *ExportClient
	if cfg.Export.Configured() {
		export = NewExportClient(cfg.Export)
	}
	data := NewDataService(cfg, NewCache(), export)

	llm, err := NewLLMClient(cfg)
	if err != nil {
		log.Fatalf("Failed to init LLM client: %v", err)
	}
	app := NewApp(cfg, data, NewRouter(llm), llm, store)

	// Load up front so a bad data source fails the start, not the
	// first question.
	if _, err := data.Dataset(context.Background()); err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	log.Println("Starting Movement Q&A Bot...")
	if cfg.SlackConfigured() {
		api := slack.New(
			cfg.SlackBotToken,
			slack.OptionAppLevelToken(cfg.SlackAppToken),
		)
		var notify func(string)
		if cfg.ReloadNotifyChannel != "" {
			notify = func(text string) { postToChannel(api, cfg.ReloadNotifyChannel, text) }
		}
		StartReloadScheduler(cfg, data, notify)
		if err := StartSlackBot(cfg, app, data, store, api); err != nil {
			log.Fatalf("Slack bot error: %v", err)
		}
		return
	}

	StartReloadScheduler(cfg, data, nil)
	log.Println("Slack not configured, answering questions from stdin")
	runPrompt(app, data)
}

// runPrompt is the local surface: one question per line, answers on
// stdout. :reload, :status and :quit are handled without the router.
func runPrompt(app *App, data *DataService) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case ":quit", ":q":
			return
		case ":reload":
			if _, err := data.Reload(context.Background()); err != nil {
				fmt.Printf("Error recargando el dataset: %v\n", err)
			} else {
				fmt.Println("Dataset recargado.")
			}
		case ":status":
			status, err := app.Status(context.Background())
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println(status)
			}
		case ":summary":
			summary, err := app.Summary(context.Background())
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println(ComposeSummary(summary))
			}
		default:
			answer, err := app.Ask(context.Background(), line)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				break
			}
			fmt.Println(answer.Text)
			for _, assumption := range answer.Assumptions {
				fmt.Println("  (" + assumption + ")")
			}
		}
		fmt.Print("> ")
	}
}
