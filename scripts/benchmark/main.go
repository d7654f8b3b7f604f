package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "croaudit API base URL")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Landing pages covering common builder stacks and protection levels.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"SaaS", "https://linear.app"},
	{"Dev tool", "https://vercel.com"},
	{"Fintech", "https://stripe.com"},
	{"Protected", "https://www.cloudflare.com"},
}

// --- Request / Response types (mirrors models package) ---

type fetchContentRequest struct {
	URL string `json:"url"`
}

type fetchContentResponse struct {
	Text    string `json:"text"`
	Warning string `json:"warning"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// --- Benchmark result types ---

type runResult struct {
	Run          int    `json:"run"`
	TotalMs      int64  `json:"total_ms"`
	HTTPStatus   int    `json:"http_status"`
	TextRunes    int    `json:"text_runes"`
	EstTokens    int    `json:"est_tokens"`
	UsedFallback bool   `json:"used_fallback"`
	Success      bool   `json:"success"`
	Code         string `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
}

type urlAverages struct {
	TotalMs   float64 `json:"total_ms"`
	TextRunes float64 `json:"text_runes"`
	EstTokens float64 `json:"est_tokens"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== croaudit fetch-content benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure croaudit is running (go run ./cmd/croaudit)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(t.URL, i)
			switch {
			case rr.Success && rr.UsedFallback:
				fmt.Printf("FALLBACK  %dms  %d chars\n", rr.TotalMs, rr.TextRunes)
			case rr.Success:
				fmt.Printf("OK  %dms  %d chars\n", rr.TotalMs, rr.TextRunes)
			default:
				fmt.Printf("FAILED [%s]: %s\n", rr.Code, rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(fetchContentRequest{URL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/fetch-content", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var fr fetchContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.TotalMs = time.Since(start).Milliseconds()
	rr.HTTPStatus = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		rr.Code = fr.Code
		rr.Error = fr.Error
		return rr
	}

	rr.Success = true
	rr.UsedFallback = fr.Warning != ""
	rr.TextRunes = utf8.RuneCountInString(fr.Text)
	rr.EstTokens = rr.TextRunes / 3
	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.TextRunes += float64(r.TextRunes)
		avg.EstTokens += float64(r.EstTokens)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.TextRunes /= n
	avg.EstTokens /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tText\tEst Tokens\tOutcome\n")
	fmt.Fprintf(w, "───\t───────────\t────\t──────────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s\n", truncateURL(r.URL, 40), dominantCode(r.Runs))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%d\t%d\t%s\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.TotalMs),
			int(r.Averages.TextRunes),
			int(r.Averages.EstTokens),
			dominantCode(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// dominantCode returns the most frequent outcome across runs.
func dominantCode(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		switch {
		case r.Success && r.UsedFallback:
			counts["FALLBACK"]++
		case r.Success:
			counts["OK"]++
		case r.Code != "":
			counts[r.Code]++
		default:
			counts["ERROR"]++
		}
	}
	best, bestCount := "", 0
	for code, count := range counts {
		if count > bestCount {
			best = code
			bestCount = count
		}
	}
	return best
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
