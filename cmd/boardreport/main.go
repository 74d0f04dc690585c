// Command boardreport summarises recorded games: per-session move counts,
// think-time statistics over the intervals between recorded moves, and an
// HTML chart of think time per move.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/chessmech/boardlink/internal/gamelog"
)

var (
	dbFile    = flag.String("db", "gamelog.db", "Game log database path")
	sessionID = flag.String("session", "", "Session to chart; empty picks the most recent")
	outFile   = flag.String("out", "boardreport.html", "Chart output path")
)

type intervalStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	P90    float64
}

// summarize computes think-time statistics over move intervals in seconds.
func summarize(intervals []float64) intervalStats {
	s := intervalStats{Count: len(intervals)}
	if len(intervals) == 0 {
		return s
	}
	s.Mean = stat.Mean(intervals, nil)
	s.StdDev = stat.StdDev(intervals, nil)

	sorted := append([]float64(nil), intervals...)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return s
}

func renderChart(sessionID string, moves []gamelog.Move, intervals []float64, path string) error {
	labels := make([]string, 0, len(intervals))
	data := make([]opts.BarData, 0, len(intervals))
	for i, v := range intervals {
		// interval i is the gap before move i+1
		label := moves[i+1].UCI
		if moves[i+1].SAN != "" {
			label = moves[i+1].SAN
		}
		labels = append(labels, label)
		data = append(data, opts.BarData{Value: v})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Board Report", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Think time per move", Subtitle: fmt.Sprintf("session %s", sessionID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("think time", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()
	return bar.Render(f)
}

func pickSession(db *gamelog.DB) (string, error) {
	summaries, err := db.SessionSummaries()
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", fmt.Errorf("no sessions recorded")
	}
	// Summaries are listed newest first.
	return summaries[0].SessionID, nil
}

func main() {
	flag.Parse()

	db, err := gamelog.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	summaries, err := db.SessionSummaries()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	fmt.Printf("%d sessions recorded\n", len(summaries))
	for _, s := range summaries {
		fmt.Printf("  %s  started %s  %d moves\n",
			s.SessionID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Moves)
	}

	target := *sessionID
	if target == "" {
		if target, err = pickSession(db); err != nil {
			log.Fatalf("Failed to pick a session: %v", err)
		}
	}

	moves, err := db.ListMoves(target)
	if err != nil {
		log.Fatalf("Failed to list moves for %s: %v", target, err)
	}
	intervals, err := db.MoveIntervals(target)
	if err != nil {
		log.Fatalf("Failed to compute move intervals for %s: %v", target, err)
	}

	st := summarize(intervals)
	fmt.Printf("\nsession %s: %d moves, %d intervals\n", target, len(moves), st.Count)
	if st.Count > 0 {
		fmt.Printf("  think time  mean=%.1fs  stddev=%.1fs  median=%.1fs  p90=%.1fs\n",
			st.Mean, st.StdDev, st.Median, st.P90)
	}

	if len(intervals) == 0 {
		log.Print("nothing to chart")
		return
	}
	if err := renderChart(target, moves, intervals, *outFile); err != nil {
		log.Fatalf("Failed to render chart: %v", err)
	}
	fmt.Printf("chart written to %s\n", *outFile)
}
