package main

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

var mentionRegex = regexp.MustCompile(`<@[A-Z0-9]+>`)

func StartSlackBot(cfg Config, app *App, data *DataService, store *Store, api *slack.Client) error {
	client := socketmode.New(api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				client.Ack(*evt.Request)
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				log.Printf("Slash command received: %s from user=%s channel=%s", cmd.Command, cmd.UserID, cmd.ChannelID)
				go handleSlashCommand(api, app, data, store, cmd)
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				go handleEventsAPI(api, app, eventsAPIEvent)
			}
		}
	}()

	log.Println("Slack bot connected via Socket Mode")
	return client.Run()
}

func handleSlashCommand(api *slack.Client, app *App, data *DataService, store *Store, cmd slack.SlashCommand) {
	switch cmd.Command {
	case "/movbot":
		handleAskCommand(api, app, cmd)
	case "/movbot-reload":
		handleReloadCommand(api, data, cmd)
	case "/movbot-status":
		handleStatusCommand(api, app, cmd)
	case "/movbot-summary":
		handleSummaryCommand(api, app, cmd)
	case "/movbot-stats":
		handleStatsCommand(api, store, cmd)
	case "/movbot-help":
		handleHelpCommand(api, cmd)
	}
}

func handleEventsAPI(api *slack.Client, app *App, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		question := strings.TrimSpace(mentionRegex.ReplaceAllString(ev.Text, ""))
		answerInChannel(api, app, ev.Channel, question)
	case *slackevents.MessageEvent:
		// Direct messages only; ignore our own and other bots' posts.
		if ev.ChannelType != "im" || ev.BotID != "" || ev.SubType != "" {
			return
		}
		answerInChannel(api, app, ev.Channel, strings.TrimSpace(ev.Text))
	}
}

func answerInChannel(api *slack.Client, app *App, channel, question string) {
	if question == "" {
		return
	}
	answer, err := app.Ask(context.Background(), question)
	if err != nil {
		log.Printf("slack ask error channel=%s: %v", channel, err)
		postToChannel(api, channel, fmt.Sprintf("Error procesando la pregunta: %v", err))
		return
	}
	text := answer.Text
	for _, assumption := range answer.Assumptions {
		text += "\n_" + assumption + "_"
	}
	postToChannel(api, channel, text)
}

func handleAskCommand(api *slack.Client, app *App, cmd slack.SlashCommand) {
	question := strings.TrimSpace(cmd.Text)
	if question == "" {
		postEphemeral(api, cmd, "Uso: /movbot <pregunta>\nEjemplo: /movbot ¿cuántos centros distintos tuvieron movimientos el 15/01/2024?")
		return
	}
	answer, err := app.Ask(context.Background(), question)
	if err != nil {
		postEphemeral(api, cmd, fmt.Sprintf("Error procesando la pregunta: %v", err))
		return
	}
	text := answer.Text
	for _, assumption := range answer.Assumptions {
		text += "\n_" + assumption + "_"
	}
	postToChannel(api, cmd.ChannelID, text)
}

func handleReloadCommand(api *slack.Client, data *DataService, cmd slack.SlashCommand) {
	ds, err := data.Reload(context.Background())
	if err != nil {
		postEphemeral(api, cmd, fmt.Sprintf("Error recargando el dataset: %v", err))
		return
	}
	postEphemeral(api, cmd, fmt.Sprintf("Dataset recargado: %d filas, %d columnas.", len(ds.Records), len(ds.Header)))
}

func handleStatusCommand(api *slack.Client, app *App, cmd slack.SlashCommand) {
	status, err := app.Status(context.Background())
	if err != nil {
		postEphemeral(api, cmd, fmt.Sprintf("Error consultando el estado: %v", err))
		return
	}
	postEphemeral(api, cmd, status)
}

func handleSummaryCommand(api *slack.Client, app *App, cmd slack.SlashCommand) {
	summary, err := app.Summary(context.Background())
	if err != nil {
		postEphemeral(api, cmd, fmt.Sprintf("Error calculando el resumen: %v", err))
		return
	}
	postEphemeral(api, cmd, ComposeSummary(summary))
}

func handleStatsCommand(api *slack.Client, store *Store, cmd slack.SlashCommand) {
	if store == nil {
		postEphemeral(api, cmd, "El registro de preguntas no está habilitado.")
		return
	}
	stats, err := store.IntentStats()
	if err != nil {
		postEphemeral(api, cmd, fmt.Sprintf("Error consultando estadísticas: %v", err))
		return
	}
	if len(stats) == 0 {
		postEphemeral(api, cmd, "Todavía no hay preguntas registradas.")
		return
	}
	var b strings.Builder
	b.WriteString("Preguntas por intención:\n")
	for _, st := range stats {
		b.WriteString(fmt.Sprintf("• %s: %d preguntas (%d aclaraciones, confianza media %.2f)\n",
			st.Intent, st.Questions, st.Clarifications, st.AvgConfidence))
	}
	postEphemeral(api, cmd, b.String())
}

func handleHelpCommand(api *slack.Client, cmd slack.SlashCommand) {
	help := "Pregúntame sobre el dataset de movimientos:\n" +
		"• `/movbot <pregunta>` — responde con cifras exactas calculadas del CSV\n" +
		"• `/movbot-status` — filas, columnas y rango de fechas cargado\n" +
		"• `/movbot-summary` — estadísticas por columna del dataset\n" +
		"• `/movbot-reload` — recarga el dataset ahora\n" +
		"• `/movbot-stats` — preguntas registradas por intención\n" +
		"También puedes mencionarme en un canal o escribirme por mensaje directo."
	postEphemeral(api, cmd, help)
}

func postToChannel(api *slack.Client, channel, text string) {
	if _, _, err := api.PostMessage(channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("slack post error channel=%s: %v", channel, err)
	}
}

func postEphemeral(api *slack.Client, cmd slack.SlashCommand, text string) {
	if _, err := api.PostEphemeral(cmd.ChannelID, cmd.UserID, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("slack ephemeral post error channel=%s user=%s: %v", cmd.ChannelID, cmd.UserID, err)
	}
}
