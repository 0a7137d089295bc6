// Package main provides a CLI tool to ingest customer feedback from a CSV
// file into the VOC Engine API. This simulates real production usage by
// making API calls with proper authentication.
//
// Usage:
//
//	go run scripts/ingest_csv.go -file /path/to/feedback.csv -api-url http://localhost:8080 -api-key YOUR_API_KEY
//
// The CSV must have a header row. Recognized columns (by header name, case
// insensitive): text (required), customer_name, source, sentiment, created_at.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config holds the CLI configuration
type Config struct {
	FilePath   string
	APIBaseURL string
	APIKey     string
	DelayMS    int
	DryRun     bool
	Source     string
}

// FeedbackRequest matches the CreateFeedbackRequest model
type FeedbackRequest struct {
	Text         string  `json:"text"`
	CustomerName *string `json:"customer_name,omitempty"`
	Source       string  `json:"source,omitempty"`
	Sentiment    *string `json:"sentiment,omitempty"`
	CreatedAt    *string `json:"created_at,omitempty"`
}

// Stats tracks ingestion statistics
type Stats struct {
	TotalRows       int
	SkippedEmpty    int
	SuccessfulPosts int
	FailedPosts     int
}

var validSentiments = map[string]bool{
	"urgent":   true,
	"negative": true,
	"neutral":  true,
	"positive": true,
}

func main() {
	cfg := parseFlags()

	if cfg.FilePath == "" {
		fmt.Println("Error: -file is required")
		flag.Usage()
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		fmt.Println("Error: -api-key is required")
		flag.Usage()
		os.Exit(1)
	}

	fmt.Printf("🚀 VOC Engine CSV Ingestion Tool\n")
	fmt.Printf("   API URL: %s\n", cfg.APIBaseURL)
	fmt.Printf("   CSV File: %s\n", cfg.FilePath)
	fmt.Printf("   Delay: %dms between requests\n", cfg.DelayMS)
	if cfg.DryRun {
		fmt.Printf("   ⚠️  DRY RUN MODE - No actual API calls will be made\n")
	}
	fmt.Println()

	stats := processCSV(cfg)

	fmt.Println()
	fmt.Println("📊 Ingestion Summary")
	fmt.Println("   ─────────────────────")
	fmt.Printf("   Total rows processed:  %d\n", stats.TotalRows)
	fmt.Printf("   Skipped (empty text):  %d\n", stats.SkippedEmpty)
	fmt.Printf("   Successfully created:  %d\n", stats.SuccessfulPosts)
	fmt.Printf("   Failed:                %d\n", stats.FailedPosts)
	fmt.Println()

	if stats.FailedPosts > 0 {
		os.Exit(1)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.FilePath, "file", "", "Path to CSV file (required)")
	flag.StringVar(&cfg.APIBaseURL, "api-url", "http://localhost:8080", "VOC Engine API base URL")
	flag.StringVar(&cfg.APIKey, "api-key", "", "API key for authentication (required)")
	flag.IntVar(&cfg.DelayMS, "delay", 100, "Delay in milliseconds between API calls")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Parse CSV but don't make API calls")
	flag.StringVar(&cfg.Source, "source", "csv_import", "Source value when the CSV has no source column")

	flag.Parse()
	return cfg
}

// columnMap maps recognized header names to their column index.
type columnMap struct {
	text         int
	customerName int
	source       int
	sentiment    int
	createdAt    int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{text: -1, customerName: -1, source: -1, sentiment: -1, createdAt: -1}

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text", "feedback", "feedback_text":
			cols.text = i
		case "customer_name", "customer":
			cols.customerName = i
		case "source":
			cols.source = i
		case "sentiment":
			cols.sentiment = i
		case "created_at", "timestamp", "date":
			cols.createdAt = i
		}
	}

	if cols.text == -1 {
		return cols, fmt.Errorf("no text column found in header: %v", header)
	}
	return cols, nil
}

func processCSV(cfg Config) Stats {
	stats := Stats{}

	file, err := os.Open(cfg.FilePath)
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable field counts
	reader.LazyQuotes = true    // Handle quotes more leniently

	client := &http.Client{Timeout: 10 * time.Second}

	header, err := reader.Read()
	if err != nil {
		fmt.Printf("Error reading header: %v\n", err)
		os.Exit(1)
	}

	cols, err := mapColumns(header)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("📥 Ingesting feedback records...")

	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("   ⚠ Row %d: Error reading: %v\n", rowNum, err)
			rowNum++
			continue
		}

		stats.TotalRows++
		feedback, ok := extractFeedbackFromRow(row, cols, cfg)
		if !ok {
			stats.SkippedEmpty++
			rowNum++
			continue
		}

		if cfg.DryRun {
			fmt.Printf("   [DRY] Row %d: Would create feedback (%d chars)\n", rowNum, len(feedback.Text))
			stats.SuccessfulPosts++
			rowNum++
			continue
		}

		if err := postFeedback(client, cfg, feedback); err != nil {
			fmt.Printf("   ✗ Row %d: %v\n", rowNum, err)
			stats.FailedPosts++
		} else {
			fmt.Printf("   ✓ Row %d\n", rowNum)
			stats.SuccessfulPosts++
		}

		time.Sleep(time.Duration(cfg.DelayMS) * time.Millisecond)
		rowNum++
	}

	return stats
}

func extractFeedbackFromRow(row []string, cols columnMap, cfg Config) (FeedbackRequest, bool) {
	text := strings.TrimSpace(safeGet(row, cols.text))
	if text == "" {
		return FeedbackRequest{}, false
	}

	feedback := FeedbackRequest{
		Text:         text,
		CustomerName: nilIfEmpty(strings.TrimSpace(safeGet(row, cols.customerName))),
		Source:       cfg.Source,
	}

	if source := strings.TrimSpace(safeGet(row, cols.source)); source != "" {
		feedback.Source = source
	}

	if sentiment := strings.ToLower(strings.TrimSpace(safeGet(row, cols.sentiment))); validSentiments[sentiment] {
		feedback.Sentiment = &sentiment
	}

	if timestamp := strings.TrimSpace(safeGet(row, cols.createdAt)); timestamp != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, timestamp); err == nil {
				formatted := t.Format(time.RFC3339)
				feedback.CreatedAt = &formatted
				break
			}
		}
	}

	return feedback, true
}

func postFeedback(client *http.Client, cfg Config, feedback FeedbackRequest) error {
	body, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequest("POST", cfg.APIBaseURL+"/v1/feedback", bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func safeGet(row []string, index int) string {
	if index >= 0 && index < len(row) {
		return row[index]
	}
	return ""
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
