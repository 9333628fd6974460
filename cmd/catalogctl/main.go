// Command catalogctl browses the storefront product listing from a terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/electroshop/internal/catalogclient"
	"github.com/utafrali/electroshop/pkg/httpclient"
	"github.com/utafrali/electroshop/pkg/logger"
)

type options struct {
	baseURL string
	timeout time.Duration
	output  string
	query   catalogclient.Query
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Query the electroshop product listing",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("CATALOG_URL", "http://localhost:8080"), "storefront base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")

	list := &cobra.Command{
		Use:   "list",
		Short: "List one page of products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			page, err := client.ListProducts(cmd.Context(), opts.query)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, page)
		},
	}
	list.Flags().StringVarP(&opts.query.Search, "search", "s", "", "match name or title")
	list.Flags().StringVarP(&opts.query.Category, "category", "c", "", "exact category")
	list.Flags().IntVarP(&opts.query.Page, "page", "p", 1, "page number")
	list.Flags().IntVarP(&opts.query.Limit, "limit", "l", 0, "page size (server default when 0)")

	browse := &cobra.Command{
		Use:   "browse",
		Short: "Search interactively: one search term per input line",
		Long: "browse reads search terms from stdin and issues a listing for each line\n" +
			"without waiting for the previous one. Responses to terms that were\n" +
			"replaced before they arrived are discarded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			return browseLatest(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts.output,
				catalogclient.NewLatest(client), opts.query)
		},
	}
	browse.Flags().StringVarP(&opts.query.Category, "category", "c", "", "exact category")
	browse.Flags().IntVarP(&opts.query.Limit, "limit", "l", 0, "page size (server default when 0)")

	root.AddCommand(list, browse)
	return root
}

// browseLatest issues one listing per input line in input order and renders
// every response that was still the newest when it arrived.
func browseLatest(ctx context.Context, in io.Reader, out io.Writer, format string, latest *catalogclient.Latest, base catalogclient.Query) error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		q := base
		q.Search = strings.TrimSpace(scanner.Text())
		q.Page = 1

		fetch := latest.Issue(ctx, q)
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := fetch()
			if errors.Is(err, catalogclient.ErrSuperseded) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(out, "search %q: %v\n", q.Search, err)
				return
			}
			fmt.Fprintf(out, "search %q\n", q.Search)
			if err := render(out, format, page); err != nil {
				fmt.Fprintf(out, "render: %v\n", err)
			}
		}()
	}
	wg.Wait()
	return scanner.Err()
}

func newClient(opts *options) (*catalogclient.Client, error) {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = opts.timeout
	doer := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("catalog"),
		logger.New("catalogctl", envOr("LOG_LEVEL", "warn")),
	)
	return catalogclient.New(opts.baseURL, doer)
}

func render(w io.Writer, format string, page *catalogclient.Page) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tOFFER")
		for _, p := range page.Products {
			offer := "-"
			if p.OfferPrice != nil {
				offer = fmt.Sprintf("%.2f", *p.OfferPrice)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Category, p.Price, offer)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "page %d of %d (%d products)\n", page.Page, page.TotalPages, page.Total)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
