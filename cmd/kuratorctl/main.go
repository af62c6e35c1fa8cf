// Kuratorctl is the moderation CLI for kuratord.
//
// It talks to the daemon's HTTP API to review pending knowledge, approve or
// reject it, and query the approved catalog.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "kuratorctl",
		Short: "Moderation CLI for the kurator knowledge engine",
		Long: `kuratorctl reviews and curates knowledge extracted by kuratord.

Typical moderation flow:

  kuratorctl pending                 # list records awaiting review
  kuratorctl approve <id> --by anna  # publish a record to the catalog
  kuratorctl reject <id> -r "too specific"
  kuratorctl ask "kenapa video fyp turun" --domain tiktok`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8780", "kuratord base URL")

	rootCmd.AddCommand(
		newPendingCmd(),
		newApproveCmd(),
		newRejectCmd(),
		newAskCmd(),
		newRateCmd(),
		newStatsCmd(),
		newHealthCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// pendingRecord mirrors the fields of the API's record payload that the CLI
// renders.
type pendingRecord struct {
	ID             string    `json:"id"`
	Topic          string    `json:"topic"`
	Category       string    `json:"category"`
	Subcategory    string    `json:"subcategory"`
	Keywords       []string  `json:"keywords"`
	Confidence     float64   `json:"confidence_score"`
	SourceQuestion string    `json:"source_question"`
	CreatedAt      time.Time `json:"created_at"`
}

func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List knowledge records awaiting moderation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []pendingRecord
			if err := getJSON("/api/v1/knowledge/pending", &records); err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No pending records.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTOPIC\tCATEGORY\tCONFIDENCE\tCREATED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s/%s\t%.2f\t%s\n",
					shortID(r.ID), r.Topic, r.Category, r.Subcategory,
					r.Confidence, r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newApproveCmd() *cobra.Command {
	var approvedBy string
	var narrative string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending record, publishing it to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"approved_by": approvedBy}
			if narrative != "" {
				body["narrative"] = narrative
			}
			if err := postJSON("/api/v1/knowledge/"+url.PathEscape(args[0])+"/approve", body); err != nil {
				return err
			}
			fmt.Printf("Approved %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&approvedBy, "by", "", "moderator identity (required)")
	cmd.Flags().StringVarP(&narrative, "narrative", "n", "", "replacement narrative, applied at approval")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{}
			if reason != "" {
				body["reason"] = reason
			}
			if err := postJSON("/api/v1/knowledge/"+url.PathEscape(args[0])+"/reject", body); err != nil {
				return err
			}
			fmt.Printf("Rejected %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "rejection reason")
	return cmd
}

func newAskCmd() *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Query the approved catalog for a matching answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			var result struct {
				Found  bool `json:"found"`
				Record *struct {
					ID        string `json:"id"`
					Topic     string `json:"topic"`
					Narrative string `json:"narrative"`
					UseCount  int    `json:"use_count"`
				} `json:"record,omitempty"`
			}

			path := "/api/v1/knowledge/match?q=" + url.QueryEscape(question) + "&domain=" + url.QueryEscape(domain)
			if err := getJSON(path, &result); err != nil {
				return err
			}

			if !result.Found || result.Record == nil {
				fmt.Println("No matching knowledge found.")
				return nil
			}

			fmt.Printf("Topic: %s  (id %s, used %d times)\n\n%s\n",
				result.Record.Topic, shortID(result.Record.ID),
				result.Record.UseCount, result.Record.Narrative)
			return nil
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "tiktok", "coaching domain (tiktok or presentation)")
	return cmd
}

func newRateCmd() *cobra.Command {
	var notHelpful bool

	cmd := &cobra.Command{
		Use:   "rate <id>",
		Short: "Record user feedback on an answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]bool{"helpful": !notHelpful}
			if err := postJSON("/api/v1/knowledge/"+url.PathEscape(args[0])+"/feedback", body); err != nil {
				return err
			}
			fmt.Printf("Recorded feedback for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&notHelpful, "not-helpful", false, "rate the answer as not helpful")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats struct {
				Pending  int `json:"pending"`
				Approved int `json:"approved"`
				Rejected int `json:"rejected"`
			}
			if err := getJSON("/api/v1/knowledge/stats", &stats); err != nil {
				return err
			}
			fmt.Printf("pending: %d\napproved: %d\nrejected: %d\n",
				stats.Pending, stats.Approved, stats.Rejected)
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Status string `json:"status"`
			}
			if err := getJSON("/health", &resp); err != nil {
				return err
			}
			fmt.Println(resp.Status)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kuratorctl %s (%s)\n", version, gitCommit)
		},
	}
}

var httpClient = &http.Client{Timeout: 15 * time.Second}

// getJSON fetches a path from the daemon and decodes the response into out.
func getJSON(path string, out any) error {
	resp, err := httpClient.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// postJSON sends a JSON body to a path, discarding any response body.
func postJSON(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := httpClient.Post(serverURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// checkStatus turns non-2xx responses into errors, surfacing the API's
// message when one is present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
	}
	return fmt.Errorf("unexpected response: %s", resp.Status)
}

// shortID truncates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
