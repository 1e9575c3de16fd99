package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"GoreScanner/internal/app"
	"GoreScanner/internal/config"
	"GoreScanner/internal/domain"
	"GoreScanner/internal/logging"
	"GoreScanner/internal/severity"
	"GoreScanner/internal/usecase"
)

const usage = `usage: gorescanner <command> [flags]

commands:
  scan      search providers, score and store results
  verify    re-fetch URLs and re-score them
  query     list stored items
  stats     summarise stored items
  export    write stored items to CSV
  settings  list or set persisted settings
  serve     run the HTTP API
  watch     re-scan configured queries on an interval
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	err = run(ctx, application, os.Args[1], os.Args[2:], os.Stdout)
	application.Close()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.Application, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "scan":
		return runScan(ctx, a, args, out)
	case "verify":
		return runVerify(ctx, a, args, out)
	case "query":
		return runQuery(ctx, a, args, out)
	case "stats":
		return runStats(ctx, a, out)
	case "export":
		return runExport(ctx, a, args, out)
	case "settings":
		return runSettings(ctx, a, args, out)
	case "serve":
		return a.Serve(ctx)
	case "watch":
		return a.Watch(ctx)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func runScan(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	providers := fs.String("providers", "", "comma-separated providers (default: configured set)")
	maxResults := fs.Int("max", 0, "max results per provider (default: configured)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")
	if query == "" {
		return errors.New("scan: query is required")
	}

	result, err := a.Scan(ctx, usecase.ScanRequest{
		Query:      query,
		Providers:  splitCSV(*providers),
		MaxResults: *maxResults,
	})
	if result != nil {
		printItems(out, result.Items)
		for _, f := range result.ProviderErrors {
			fmt.Fprintf(out, "provider %s failed: %v\n", f.Provider, f.Err)
		}
		fmt.Fprintf(out, "%d items, %d duplicates dropped, %d not persisted\n",
			len(result.Items), result.Duplicates, result.StoreFailures)
	}
	return err
}

func runVerify(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("verify: at least one URL is required")
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tGORE\tDETAILS\tURL")
	for _, r := range a.Verify(ctx, fs.Args()) {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\n", r.Severity, yesNo(r.GoreFlag), r.Details, r.URL)
	}
	return tw.Flush()
}

func runQuery(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := a.Query(ctx, filter())
	if err != nil {
		return err
	}
	printItems(out, items)
	return nil
}

func runStats(ctx context.Context, a *app.Application, out io.Writer) error {
	stats, err := a.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "total: %d\naverage severity: %.2f\n", stats.Total, stats.AvgSeverity)
	printCounts(out, "by source", stats.BySource)
	printCounts(out, "by media type", stats.ByMediaType)
	return nil
}

func runExport(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	path := fs.String("out", "gore_export.csv", "output file")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	n, err := a.Export(ctx, *path, filter())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d rows to %s\n", n, *path)
	return nil
}

func runSettings(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "list" {
		stored, err := a.Settings(ctx)
		if err != nil {
			return err
		}
		for _, key := range config.SettingKeys() {
			value, ok := stored[key]
			if !ok {
				value = "(unset)"
			} else if key == config.SettingNewsAPIKey && value != "" {
				value = "****"
			}
			fmt.Fprintf(out, "%s = %s\n", key, value)
		}
		return nil
	}
	if args[0] == "set" && len(args) == 3 {
		if err := a.SetSetting(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s saved\n", args[1])
		return nil
	}
	return errors.New("usage: gorescanner settings [list | set <key> <value>]")
}

// filterFlags registers the shared item filter flags on fs.
func filterFlags(fs *flag.FlagSet) func() domain.ItemFilter {
	minScore := fs.Float64("min", 0, "minimum severity")
	maxScore := fs.Float64("max", 1, "maximum severity")
	source := fs.String("source", "", "source name")
	media := fs.String("media", "", "media type: article, image, video, text")
	limit := fs.Int("limit", 0, "row limit (0 = default)")
	return func() domain.ItemFilter {
		return domain.ItemFilter{
			ScoreMin:   *minScore,
			ScoreMax:   domain.MaxScore(*maxScore),
			SourceName: *source,
			MediaType:  domain.MediaType(*media),
			Limit:      *limit,
		}
	}
}

func printItems(out io.Writer, items []domain.ScanItem) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tBAND\tTYPE\tSOURCE\tTITLE\tURL")
	for _, item := range items {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\t%s\n",
			item.Severity,
			severity.BandFor(item.Severity),
			item.MediaType,
			item.SourceName,
			domain.Truncate(item.Title, 60),
			item.URL)
	}
	_ = tw.Flush()
}

func printCounts(out io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %d\n", k, counts[k])
	}
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
