package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gymtrack_app_echo/internal/app"
	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/config"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/models"
)

func main() {
	taskName := flag.String("task", "", "Run only this task (optional, default: every task)")
	dateStr := flag.String("date", "", "Run the task as of this day (optional, format: 2006-01-02, requires -task)")
	flag.Parse()

	if *dateStr != "" && *taskName == "" {
		fmt.Println("Usage: runjobs [-task <name> [-date <YYYY-MM-DD>]]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg := logger.New(cfg.Env)

	loc := cfg.Location()
	at := clock.NewReal(loc).Now()
	var opts []app.Option
	if *dateStr != "" {
		day, err := clock.ParseDay(*dateStr, loc)
		if err != nil {
			log.Fatalf("Invalid date. Use 2006-01-02: %v", err)
		}
		// same time of day on the requested date
		at = day.Add(at.Sub(clock.Today(at)))
		opts = append(opts, app.WithClock(clock.NewFixed(at)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logg, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	var out interface{}
	if *taskName == "" {
		summary, err := a.Runner.TriggerNow(ctx, models.JobTriggerCLI)
		if err != nil {
			log.Fatalf("Job run failed: %v", err)
		}
		out = summary
	} else {
		result, err := a.Runner.RunTask(ctx, *taskName, at, models.JobTriggerCLI)
		if err != nil {
			log.Fatalf("Task %s failed: %v", *taskName, err)
		}
		out = result
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
