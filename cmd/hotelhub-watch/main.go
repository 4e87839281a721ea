// hotelhub-watch tails the dashboard event stream from a terminal: it logs
// every status change and prints a property summary periodically. Useful for
// verifying the pipeline without a browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/client"
	"github.com/aegeanview/hotelhub/internal/routing"
)

const summaryInterval = 15 * time.Second

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	url := os.Getenv("HOTELHUB_URL")
	session := os.Getenv("HOTELHUB_SESSION")
	if url == "" || session == "" {
		log.Fatal().Msg("HOTELHUB_URL and HOTELHUB_SESSION are required")
	}

	routes := routing.NewTable()
	trees := client.NewTrees()
	stream := client.NewStream(url+"/api/stream", session, routes, trees, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("stream failed")
		}
	}()

	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("bye")
			return
		case <-ticker.C:
			printSummary(stream, trees)
		}
	}
}

func printSummary(stream *client.Stream, trees *client.Trees) {
	fmt.Printf("\n=== %s (upstream: %s) ===\n", time.Now().Format("15:04:05"), stream.Status())

	rooms := trees.Rooms.Rooms()
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := rooms[id]
		fmt.Printf("  room %s  %-9s ac=%-4s %4.1f°C  power=%5.0fW\n",
			r.ID, r.Status, r.AC.Mode, r.AC.CurrentTemp, r.Power)
	}

	e := trees.Energy.State()
	fmt.Printf("  energy total=%.0fW today=%.1fkWh savings=%.2f€\n",
		e.TotalPower, e.TodayEnergy, e.Savings)

	for _, id := range routing.Heaters {
		if h, ok := trees.HotWater.Heater(id); ok {
			fmt.Printf("  heater %s  %.1f°C (collector %.1f°C) element=%v\n",
				h.ID, h.Temp, h.CollectorTemp, h.ElementOn)
		}
	}
}
