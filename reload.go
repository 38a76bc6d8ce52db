package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartReloadScheduler refreshes the dataset on a cron schedule so
// long-running bots pick up new exports without operator action.
// The schedule is a standard 5-field cron expression (minute hour
// day-of-month month day-of-week). Examples: "0 6 * * *" (daily 6am),
// "0 */4 * * *" (every 4 hours). notify, when non-nil, receives a
// one-line result after each reload attempt.
func StartReloadScheduler(cfg Config, data *DataService, notify func(text string)) {
	schedule := strings.TrimSpace(cfg.ReloadCron)
	if schedule == "" {
		log.Println("Scheduled reload disabled (reload_cron not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid reload_cron '%s': %v — scheduled reload disabled", schedule, err)
		return
	}

	log.Printf("Dataset reload scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next dataset reload at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			ds, err := data.Reload(context.Background())
			if err != nil {
				log.Printf("Scheduled reload error: %v", err)
				if notify != nil {
					notify("Recarga programada fallida: " + err.Error())
				}
				continue
			}
			log.Printf("Scheduled reload done rows=%d cols=%d", len(ds.Records), len(ds.Header))
			if notify != nil {
				notify(fmt.Sprintf("Dataset recargado automáticamente: %d filas, %d columnas.", len(ds.Records), len(ds.Header)))
			}
		}
	}()
}
