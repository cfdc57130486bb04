package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		reqs, err := s.ListLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		printLLMList(cmd.OutOrStdout(), reqs, purpose)
		return nil
	},
}

func printLLMList(w io.Writer, reqs []store.LLMRequest, purpose string) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No LLM requests found.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-19s  %-10s  %-28s  %-6s  %-6s  %-7s  %s\n",
		"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
	fmt.Fprintln(w, strings.Repeat("─", 130))

	for _, r := range reqs {
		if purpose != "" && r.Purpose != purpose {
			continue
		}
		ok := "✓"
		if !r.Success {
			ok = "✗"
		}
		fmt.Fprintf(w, "%-36s  %-19s  %-10s  %-28s  %-6d  %-6d  %-7d  %s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Purpose,
			truncate(r.Model, 28),
			r.InputTokens,
			r.OutputTokens,
			r.LatencyMs,
			ok,
		)
	}
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request and response of an LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		r, err := s.GetLLMRequest(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get request %s: %w", args[0], err)
		}

		w := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)

		fmt.Fprintf(w, "ID:        %s\n", r.ID)
		fmt.Fprintf(w, "Time:      %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Provider:  %s\n", r.Provider)
		fmt.Fprintf(w, "Model:     %s\n", r.Model)
		fmt.Fprintf(w, "Purpose:   %s\n", r.Purpose)
		fmt.Fprintf(w, "Tokens:    %d in / %d out\n", r.InputTokens, r.OutputTokens)
		fmt.Fprintf(w, "Latency:   %dms\n", r.LatencyMs)
		fmt.Fprintf(w, "Success:   %v\n", r.Success)
		if r.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:     %s\n", r.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", r.RequestBody},
			{"RESPONSE", r.ResponseBody},
		} {
			fmt.Fprintln(w)
			fmt.Fprintln(w, sep)
			fmt.Fprintln(w, part.title)
			fmt.Fprintln(w, sep)
			if part.body == "" {
				fmt.Fprintln(w, "(not captured)")
			} else {
				fmt.Fprintln(w, part.body)
			}
		}
		return nil
	},
}

// usage aggregates calls for one key (purpose or model).
type usage struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	totalLatency int64
}

func (u usage) AvgLatencyMs() int64 {
	if u.Calls == 0 {
		return 0
	}
	return u.totalLatency / int64(u.Calls)
}

// aggregateUsage groups reqs by key, sorted by call count descending.
func aggregateUsage(reqs []store.LLMRequest, key func(store.LLMRequest) string) []usage {
	byKey := make(map[string]*usage)
	for _, r := range reqs {
		k := key(r)
		u, ok := byKey[k]
		if !ok {
			u = &usage{Key: k}
			byKey[k] = u
		}
		u.Calls++
		if !r.Success {
			u.Failures++
		}
		u.InputTokens += r.InputTokens
		u.OutputTokens += r.OutputTokens
		u.totalLatency += r.LatencyMs
	}

	out := make([]usage, 0, len(byKey))
	for _, u := range byKey {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Key < out[j].Key
	})
	return out
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		reqs, err := s.ListLLMRequests(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		printLLMStats(cmd.OutOrStdout(), reqs)
		return nil
	},
}

func printLLMStats(w io.Writer, reqs []store.LLMRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No LLM usage recorded yet.")
		return
	}

	sections := []struct {
		title string
		key   func(store.LLMRequest) string
	}{
		{"Usage by Purpose", func(r store.LLMRequest) string { return r.Purpose }},
		{"Usage by Model", func(r store.LLMRequest) string { return r.Provider + "/" + r.Model }},
	}

	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, sec.title)
		fmt.Fprintln(w, strings.Repeat("─", 84))
		fmt.Fprintf(w, "%-32s  %6s  %6s  %10s  %10s  %8s\n",
			"Key", "Calls", "Failed", "Input", "Output", "Avg Ms")
		fmt.Fprintln(w, strings.Repeat("─", 84))

		var calls, failed, in, out int
		for _, u := range aggregateUsage(reqs, sec.key) {
			fmt.Fprintf(w, "%-32s  %6d  %6d  %10d  %10d  %8d\n",
				truncate(u.Key, 32), u.Calls, u.Failures, u.InputTokens, u.OutputTokens, u.AvgLatencyMs())
			calls += u.Calls
			failed += u.Failures
			in += u.InputTokens
			out += u.OutputTokens
		}
		fmt.Fprintln(w, strings.Repeat("─", 84))
		fmt.Fprintf(w, "%-32s  %6d  %6d  %10d  %10d\n", "TOTAL", calls, failed, in, out)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. explanation)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
