// Command tierstats summarises a decision archive: how often each tier
// decided, how often the safety check overrode it, and how long it took.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

func main() {
	roots := flag.String("roots", "data/arena,archive", "Comma separated archive directories")
	source := flag.String("source", "", "Only rows from this source (live, arena)")
	flag.Parse()

	db, err := openArchive(strings.Split(*roots, ","))
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	games, turns, err := queryGameCount(ctx, db)
	if err != nil {
		log.Fatalf("count: %v", err)
	}
	stats, err := queryTierStats(ctx, db, *source)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("%d games, %d decisions\n\n", games, turns)
	printStats(os.Stdout, stats)
}

func printStats(w io.Writer, stats []TierStat) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTIER\tDECISIONS\tSHARE\tOVERRIDES\tMEAN\tP95")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\t%.1f%%\t%s\t%s\n",
			st.Source, st.Tier, st.Decisions, st.Share*100, st.OverrideRate*100,
			micros(st.MeanMicros), micros(st.P95Micros))
	}
	_ = tw.Flush()
}

func micros(us float64) time.Duration {
	return (time.Duration(us) * time.Microsecond).Round(time.Microsecond)
}
