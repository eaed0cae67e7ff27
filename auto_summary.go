package main

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// RunScheduledSummary generates, stores and posts the previous week's
// report. It has no scheduler dependency so it can also be invoked
// directly.
func RunScheduledSummary(cfg Config, db *sql.DB, orch *Orchestrator, notifier *Notifier) (SummaryReport, error) {
	periodStart, periodEnd := PreviousWeekRange(time.Now().In(cfg.Location))
	log.Printf("scheduled summary range %s - %s", periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))

	items, err := GetClassifiedByDateRange(db, periodStart, periodEnd)
	if err != nil {
		return SummaryReport{}, err
	}

	report := orch.Summarize(context.Background(), items, periodStart, periodEnd)

	if _, err := InsertSummaryReport(db, report); err != nil {
		return report, err
	}
	notifier.PostSummary(report)
	return report, nil
}

// StartSummaryScheduler starts a cron-based scheduler that periodically
// generates the weekly summary report.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 8 * * 1" (Mondays 8am), "0 8 1 * *" (first of the month 8am).
func StartSummaryScheduler(cfg Config, db *sql.DB, orch *Orchestrator, notifier *Notifier) {
	schedule := strings.TrimSpace(cfg.SummarySchedule)
	if schedule == "" {
		log.Println("Summary scheduler disabled (summary_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid summary_schedule '%s': %v — scheduler disabled", schedule, err)
		return
	}
	log.Printf("Summary generation scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next summary at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			report, err := RunScheduledSummary(cfg, db, orch, notifier)
			if err != nil {
				log.Printf("Scheduled summary error: %v", err)
				continue
			}
			log.Printf("Scheduled summary complete: items=%d resolution=%.0f%% source=%s",
				report.TotalItems, report.ResolutionRate*100, report.Source)
		}
	}()
}
