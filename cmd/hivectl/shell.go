package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gabrielmt/hived/internal/aggregate"
	"github.com/gabrielmt/hived/internal/retention"
	"github.com/gabrielmt/hived/internal/store"
)

type shell struct {
	db  *store.Store
	ret *retention.Manager
}

func (s *shell) execute(line string) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "latest":
		s.latest(ctx)
	case "count":
		s.count(ctx)
	case "day":
		s.day(ctx, args)
	case "range":
		s.rangeCmd(ctx, args)
	case "chart":
		s.chart(ctx, args)
	case "summary":
		s.summary(ctx, args)
	case "stats":
		s.stats(ctx, args)
	case "policy":
		s.policy(args)
	case "sweep":
		s.sweep(ctx)
	case "help":
		s.help()
	case "exit", "quit":
		fmt.Println("bye")
		s.db.Close()
		os.Exit(0)
	default:
		fmt.Printf("unknown command %q (try 'help')\n", cmd)
	}
}

func (s *shell) help() {
	for _, c := range commands {
		fmt.Printf("  %-8s %s\n", c.Text, c.Description)
	}
}

func (s *shell) latest(ctx context.Context) {
	r, err := s.db.Latest(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if r == nil {
		fmt.Println("no readings stored")
		return
	}
	printReading(*r)
}

func (s *shell) count(ctx context.Context) {
	n, err := s.db.CountAll(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%d readings\n", n)
}

func (s *shell) day(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: day <YYYY-MM-DD>")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
	if err != nil {
		fmt.Printf("bad date %q: %v\n", args[0], err)
		return
	}
	readings, err := s.db.QueryByDay(ctx, day)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printReadings(readings)
}

func (s *shell) rangeCmd(ctx context.Context, args []string) {
	start, end, ok := parseRange(args)
	if !ok {
		return
	}
	readings, err := s.db.QueryByRange(ctx, start, end)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printReadings(readings)
}

func (s *shell) chart(ctx context.Context, args []string) {
	start, end, ok := parseRange(args)
	if !ok {
		return
	}
	readings, err := s.db.QueryByRange(ctx, start, end)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	buckets, g := aggregate.BucketizeRange(readings, start, end)
	if len(buckets) == 0 {
		fmt.Println("no activity in range")
		return
	}
	labels := aggregate.Labels(buckets, g, aggregate.DefaultMaxLabels)

	fmt.Printf("granularity: %s, %d buckets\n", g, len(buckets))
	for i, b := range buckets {
		fmt.Printf("  %-22s %-8s in=%-6d out=%-6d n=%d\n",
			b.Start.Format(time.RFC3339), labels[i], b.Entries, b.Exits, b.Count)
	}
}

func (s *shell) summary(ctx context.Context, args []string) {
	start, end, ok := parseRange(args)
	if !ok {
		return
	}
	readings, err := s.db.QueryByRange(ctx, start, end)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	sum := aggregate.Summarize(readings)
	fmt.Printf("total entries: %d\n", sum.TotalEntries)
	fmt.Printf("total exits:   %d\n", sum.TotalExits)
	if sum.PeakActivity != nil {
		fmt.Printf("peak activity: %s\n", sum.PeakActivity.Format("02/01/2006 15:04:05"))
	} else {
		fmt.Println("peak activity: n/a")
	}
}

func (s *shell) stats(ctx context.Context, args []string) {
	start, end, ok := parseRange(args)
	if !ok {
		return
	}
	readings, err := s.db.QueryByRange(ctx, start, end)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	for _, m := range aggregate.ComputeMeasurementStats(readings) {
		if m.Count == 0 {
			fmt.Printf("  %-22s no data\n", m.Name)
			continue
		}
		fmt.Printf("  %-22s n=%-6d min=%-8.2f avg=%-8.2f max=%-8.2f p95=%.2f\n",
			m.Name, m.Count, m.Min, m.Avg, m.Max, m.P95)
	}
}

func (s *shell) policy(args []string) {
	switch len(args) {
	case 0:
		fmt.Printf("retention policy: %s\n", s.ret.CurrentPolicy())
	case 1:
		if err := s.ret.SetPolicy(args[0]); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Printf("retention policy set to %s\n", args[0])
	default:
		fmt.Println("usage: policy [short|medium|long]")
	}
}

func (s *shell) sweep(ctx context.Context) {
	deleted, err := s.ret.SweepNow(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("sweep deleted %d readings\n", deleted)
}

func parseRange(args []string) (time.Time, time.Time, bool) {
	if len(args) != 2 {
		fmt.Println("usage: <command> <start> <end> (RFC3339, e.g. 2026-08-01T00:00:00Z)")
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(time.RFC3339, args[0])
	if err != nil {
		fmt.Printf("bad start %q: %v\n", args[0], err)
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		fmt.Printf("bad end %q: %v\n", args[1], err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func printReading(r store.Reading) {
	fmt.Printf("  #%d %s in=%d out=%d hum=%.1f/%.1f temp=%.1f/%.1f lum=%.1f\n",
		r.ID, r.RecordedAt.Format(time.RFC3339),
		r.EntriesCount, r.ExitsCount,
		r.HumidityInternal, r.HumidityExternal,
		r.TemperatureInternal, r.TemperatureExternal,
		r.Luminosity)
}

func printReadings(readings []store.Reading) {
	if len(readings) == 0 {
		fmt.Println("no readings")
		return
	}
	for _, r := range readings {
		printReading(r)
	}
	fmt.Printf("%d readings\n", len(readings))
}
