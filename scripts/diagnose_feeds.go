// Command diagnose_feeds probes every distinct feed URL in feed_subscriptions
// and reports which ones still serve a parseable feed. It writes a text
// report, a JSON report and a feed_fixes.sql file with suggested cleanup
// statements for redirected or dead feeds.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mmcdole/gofeed"
)

// FeedDiagnostic represents the diagnostic result for a single feed URL.
type FeedDiagnostic struct {
	URL           string `json:"url"`
	Subscribers   int    `json:"subscribers"`
	Status        string `json:"status"` // "OK", "HTTP_ERROR", "PARSE_ERROR", "EMPTY", "TIMEOUT", "REDIRECT"
	HTTPCode      int    `json:"http_code"`
	ItemCount     int    `json:"item_count"`
	LatestDate    string `json:"latest_date"`
	ErrorMessage  string `json:"error_message,omitempty"`
	FeedType      string `json:"feed_type"` // "rss", "atom", "json", ""
	RedirectURL   string `json:"redirect_url,omitempty"`
	ResponseTime  int64  `json:"response_time_ms"`
	ContentLength int64  `json:"content_length"`
}

type feedRow struct {
	URL         string
	Subscribers int
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	feeds, err := fetchFeeds(db)
	if err != nil {
		log.Fatalf("Failed to fetch feed URLs: %v", err)
	}

	log.Printf("Diagnosing %d feed URLs...\n", len(feeds))

	diagnostics := make([]FeedDiagnostic, 0, len(feeds))
	for i, feed := range feeds {
		log.Printf("[%d/%d] Diagnosing: %s", i+1, len(feeds), feed.URL)
		diag := diagnoseFeed(feed, 30*time.Second)
		diagnostics = append(diagnostics, diag)

		// Rate limiting to be nice to servers
		time.Sleep(500 * time.Millisecond)
	}

	generateReport(diagnostics)
	generateJSONReport(diagnostics)
	generateSQLFixes(diagnostics)
}

func fetchFeeds(db *sql.DB) ([]feedRow, error) {
	rows, err := db.Query(`
SELECT feed_url, COUNT(*)
FROM feed_subscriptions
WHERE status = 'ACTIVE'
GROUP BY feed_url
ORDER BY feed_url`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var feeds []feedRow
	for rows.Next() {
		var f feedRow
		if err := rows.Scan(&f.URL, &f.Subscribers); err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func diagnoseFeed(feed feedRow, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{
		URL:         feed.URL,
		Subscribers: feed.Subscribers,
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", feed.URL, nil)
	if err != nil {
		diag.Status = "REQUEST_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	req.Header.Set("User-Agent", "FeedIngest-Diagnostic/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	diag.ResponseTime = time.Since(startTime).Milliseconds()

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			diag.Status = "TIMEOUT"
			diag.ErrorMessage = fmt.Sprintf("Request timeout after %v", timeout)
		} else {
			diag.Status = "HTTP_ERROR"
			diag.ErrorMessage = err.Error()
		}
		return diag
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	diag.HTTPCode = resp.StatusCode
	diag.ContentLength = resp.ContentLength

	if resp.Request.URL.String() != feed.URL {
		diag.RedirectURL = resp.Request.URL.String()
		diag.Status = "REDIRECT"
	}

	if resp.StatusCode != 200 {
		diag.Status = "HTTP_ERROR"
		diag.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)
		return diag
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		diag.Status = "PARSE_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.FeedType = parsed.FeedType
	diag.ItemCount = len(parsed.Items)
	if len(parsed.Items) > 0 && parsed.Items[0].PublishedParsed != nil {
		diag.LatestDate = parsed.Items[0].PublishedParsed.Format(time.RFC3339)
	}

	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "Feed has no items"
		return diag
	}

	if diag.Status == "" {
		diag.Status = "OK"
	}
	return diag
}

// writef is a helper to write to file and handle errors
func writef(f *os.File, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(f, format, args...)
	return err
}

func generateReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.txt")
	if err != nil {
		log.Printf("Failed to create report file: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close report file: %v", err)
		}
	}()

	writeErr := func(err error) bool {
		if err != nil {
			log.Printf("Failed to write to report: %v", err)
			return true
		}
		return false
	}

	if writeErr(writef(f, "===============================================\n")) {
		return
	}
	if writeErr(writef(f, "Feed Subscription Diagnostic Report\n")) {
		return
	}
	if writeErr(writef(f, "Generated: %s\n", time.Now().Format(time.RFC3339))) {
		return
	}
	if writeErr(writef(f, "Total Feed URLs: %d\n", len(diagnostics))) {
		return
	}
	if writeErr(writef(f, "===============================================\n\n")) {
		return
	}

	statusCount := make(map[string]int)
	var okCount, errorCount int
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if d.Status == "OK" || d.Status == "REDIRECT" {
			okCount++
		} else {
			errorCount++
		}
	}

	_ = writef(f, "SUMMARY:\n")
	_ = writef(f, "  ✅ Working: %d (%.1f%%)\n", okCount, float64(okCount)/float64(len(diagnostics))*100)
	_ = writef(f, "  ❌ Broken: %d (%.1f%%)\n", errorCount, float64(errorCount)/float64(len(diagnostics))*100)
	_ = writef(f, "\nSTATUS BREAKDOWN:\n")
	for status, count := range statusCount {
		_ = writef(f, "  %s: %d\n", status, count)
	}
	_ = writef(f, "\n")

	_ = writef(f, "DETAILED RESULTS:\n")
	_ = writef(f, "===============================================\n\n")

	_ = writef(f, "✅ WORKING FEEDS (%d):\n", statusCount["OK"]+statusCount["REDIRECT"])
	_ = writef(f, "-------------------------------------------\n")
	for _, d := range diagnostics {
		if d.Status == "OK" || d.Status == "REDIRECT" {
			_ = writef(f, "URL: %s\n", d.URL)
			_ = writef(f, "  Subscribers: %d\n", d.Subscribers)
			_ = writef(f, "  Type: %s | Items: %d | Latest: %s\n", d.FeedType, d.ItemCount, d.LatestDate)
			_ = writef(f, "  Response: %dms | HTTP: %d\n", d.ResponseTime, d.HTTPCode)
			if d.RedirectURL != "" {
				_ = writef(f, "  ⚠️  Redirected to: %s\n", d.RedirectURL)
			}
			_ = writef(f, "\n")
		}
	}

	_ = writef(f, "\n❌ BROKEN FEEDS (%d):\n", errorCount)
	_ = writef(f, "-------------------------------------------\n")
	for _, d := range diagnostics {
		if d.Status != "OK" && d.Status != "REDIRECT" {
			_ = writef(f, "URL: %s\n", d.URL)
			_ = writef(f, "  Subscribers: %d\n", d.Subscribers)
			_ = writef(f, "  Status: %s | HTTP: %d\n", d.Status, d.HTTPCode)
			_ = writef(f, "  Error: %s\n", d.ErrorMessage)
			_ = writef(f, "  Response: %dms\n", d.ResponseTime)
			_ = writef(f, "\n")
		}
	}

	log.Println("✅ Text report generated: feed_diagnostic_report.txt")
}

func generateJSONReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.json")
	if err != nil {
		log.Printf("Failed to create JSON report: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close JSON report file: %v", err)
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(diagnostics); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}

	log.Println("✅ JSON report generated: feed_diagnostic_report.json")
}

func generateSQLFixes(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_fixes.sql")
	if err != nil {
		log.Printf("Failed to create SQL fixes file: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close SQL fixes file: %v", err)
		}
	}()

	_ = writef(f, "-- SQL Fixes for Broken Feeds\n")
	_ = writef(f, "-- Generated: %s\n\n", time.Now().Format(time.RFC3339))

	hasRedirects := false
	for _, d := range diagnostics {
		if d.RedirectURL != "" && d.RedirectURL != d.URL {
			if !hasRedirects {
				_ = writef(f, "-- Point subscriptions at the post-redirect URL\n")
				hasRedirects = true
			}
			_ = writef(f, "UPDATE feed_subscriptions SET feed_url = '%s' WHERE feed_url = '%s'; -- %d subscribers\n",
				strings.ReplaceAll(d.RedirectURL, "'", "''"),
				strings.ReplaceAll(d.URL, "'", "''"),
				d.Subscribers)
		}
	}
	if hasRedirects {
		_ = writef(f, "\n")
	}

	hasBroken := false
	for _, d := range diagnostics {
		if d.Status != "OK" && d.Status != "REDIRECT" {
			if !hasBroken {
				_ = writef(f, "-- Unsubscribe dead feeds (review before running)\n")
				hasBroken = true
			}
			_ = writef(f, "UPDATE feed_subscriptions SET status = 'UNSUBSCRIBED' WHERE feed_url = '%s'; -- %s, %d subscribers\n",
				strings.ReplaceAll(d.URL, "'", "''"),
				d.Status,
				d.Subscribers)
		}
	}

	log.Println("✅ SQL fixes generated: feed_fixes.sql")
}
