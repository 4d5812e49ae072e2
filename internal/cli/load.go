package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/worker"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

type LoadOptions struct {
	URL        string
	Reference  string
	Amount     string
	RPS        int
	Duration   time.Duration
	Workers    int
	Duplicates float64
}

type loadStats struct {
	sent    atomic.Int64
	failed  atomic.Int64
	mu      sync.Mutex
	results map[string]int64
	times   []time.Duration
}

func (s *loadStats) record(desc string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[desc]++
	s.times = append(s.times, d)
}

// NewLoadCommand replays C2B notifications against a running gateway. A
// share of them reuse an earlier transaction id to exercise redelivery.
func NewLoadCommand(opts *RootOptions) *cobra.Command {
	lo := LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Send C2B notifications to the callback at a fixed rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lo.RPS <= 0 || lo.Workers <= 0 || lo.Duration <= 0 {
				return errors.New("--rps, --workers and --duration must be positive")
			}
			if lo.Duplicates < 0 || lo.Duplicates > 1 {
				return errors.New("--duplicates must be between 0 and 1")
			}
			if _, err := decimal.NewFromString(lo.Amount); err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			client := opts.Client
			if client == nil {
				client = &fasthttp.Client{MaxConnsPerHost: lo.Workers}
			}
			return runLoad(cmd.Context(), client, lo, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&lo.URL, "url", "http://localhost:8080/mpesa/c2b/callback/", "callback URL")
	cmd.Flags().StringVar(&lo.Reference, "reference", "", "billing reference to pay")
	cmd.Flags().StringVar(&lo.Amount, "amount", "100", "amount per notification")
	cmd.Flags().IntVar(&lo.RPS, "rps", 50, "notifications per second")
	cmd.Flags().DurationVar(&lo.Duration, "duration", 10*time.Second, "how long to send")
	cmd.Flags().IntVar(&lo.Workers, "workers", 16, "concurrent senders")
	cmd.Flags().Float64Var(&lo.Duplicates, "duplicates", 0.1, "fraction of notifications that replay an earlier transaction id")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func runLoad(ctx context.Context, client *fasthttp.Client, lo LoadOptions, out io.Writer) error {
	stats := &loadStats{results: make(map[string]int64)}
	amount := decimal.RequireFromString(lo.Amount)

	var pending sync.WaitGroup
	pool := worker.NewWorkerManager(lo.RPS, lo.Workers, nil)
	pool.SetWorker(func(_ int, job interface{}) {
		defer pending.Done()
		sendNotification(client, lo.URL, job.([]byte), stats)
	})

	poolCtx, stopPool := context.WithCancel(ctx)
	defer stopPool()
	go pool.Start(poolCtx)

	var lastID string
	seconds := int(lo.Duration / time.Second)
	if seconds == 0 {
		seconds = 1
	}
	start := time.Now()

	for i := 0; i < seconds && ctx.Err() == nil; i++ {
		tick := time.Now()
		for j := 0; j < lo.RPS; j++ {
			k := float64(stats.sent.Load())
			id := lastID
			if id == "" || int((k+1)*lo.Duplicates) == int(k*lo.Duplicates) {
				id = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
				lastID = id
			}
			body, _ := json.Marshal(model.C2BNotification{
				TransactionID:    id,
				PayerPhone:       "254700000000",
				Amount:           amount,
				BillingReference: lo.Reference,
			})

			pending.Add(1)
			if !pool.Enqueue(ctx, body) {
				pending.Done()
				break
			}
			stats.sent.Add(1)
		}
		if wait := time.Second - time.Since(tick); wait > 0 && i < seconds-1 {
			time.Sleep(wait)
		}
	}

	pending.Wait()
	pool.Exit()
	printLoadReport(out, stats, time.Since(start))
	return ctx.Err()
}

func sendNotification(client *fasthttp.Client, url string, body []byte, stats *loadStats) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	start := time.Now()
	if err := client.DoTimeout(req, resp, 10*time.Second); err != nil {
		stats.failed.Add(1)
		return
	}

	var res struct {
		ResultCode int    `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	if resp.StatusCode() != fasthttp.StatusOK || json.Unmarshal(resp.Body(), &res) != nil {
		stats.failed.Add(1)
		return
	}
	stats.record(fmt.Sprintf("ResultCode %d: %s", res.ResultCode, res.ResultDesc), time.Since(start))
}

func printLoadReport(out io.Writer, stats *loadStats, elapsed time.Duration) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	fmt.Fprintf(out, "sent %d in %s, transport failures %d\n", stats.sent.Load(), elapsed.Round(time.Millisecond), stats.failed.Load())

	keys := make([]string, 0, len(stats.results))
	for k := range stats.results {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-50s %d\n", k, stats.results[k])
	}

	if len(stats.times) == 0 {
		return
	}
	slices.Sort(stats.times)
	fmt.Fprintf(out, "latency p50=%s p95=%s p99=%s max=%s\n",
		percentile(stats.times, 0.50),
		percentile(stats.times, 0.95),
		percentile(stats.times, 0.99),
		stats.times[len(stats.times)-1])
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	i := int(float64(len(sorted)) * p)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}
