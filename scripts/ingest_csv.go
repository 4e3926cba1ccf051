// Command ingest_csv loads reviews from a CSV file through the running API,
// exercising the same ingestion path as the sync sources.
//
// Usage:
//
//	go run scripts/ingest_csv.go -file reviews.csv -api-url http://localhost:8080
//
// Expected columns: professor_id, text, source_kind, rating (optional),
// reviewed_at (optional, RFC3339). A header row is required.
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
	"strconv"
	"strings"
	"time"
)

type reviewRequest struct {
	ProfessorID int64   `json:"professor_id"`
	Text        string  `json:"text"`
	SourceKind  string  `json:"source_kind"`
	Rating      *int    `json:"rating,omitempty"`
	ReviewedAt  *string `json:"reviewed_at,omitempty"`
}

func main() {
	filePath := flag.String("file", "", "path to the CSV file (required)")
	apiURL := flag.String("api-url", "http://localhost:8080", "base URL of the API")
	delayMS := flag.Int("delay-ms", 50, "delay between requests in milliseconds")
	dryRun := flag.Bool("dry-run", false, "parse and print without posting")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "error: -file is required")
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open %s: %v\n", *filePath, err)
		os.Exit(1)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: read header: %v\n", err)
		os.Exit(1)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"professor_id", "text", "source_kind"} {
		if _, ok := col[required]; !ok {
			fmt.Fprintf(os.Stderr, "error: missing column %q\n", required)
			os.Exit(1)
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var posted, skipped, failed int

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			failed++

			continue
		}

		req, err := parseRow(row, col)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			skipped++

			continue
		}

		if *dryRun {
			out, _ := json.Marshal(req)
			fmt.Println(string(out))
			posted++

			continue
		}

		if err := postReview(client, *apiURL, req); err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			failed++
		} else {
			posted++
		}

		time.Sleep(time.Duration(*delayMS) * time.Millisecond)
	}

	fmt.Printf("done: posted=%d skipped=%d failed=%d\n", posted, skipped, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func parseRow(row []string, col map[string]int) (*reviewRequest, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[i])
	}

	professorID, err := strconv.ParseInt(field("professor_id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad professor_id %q", field("professor_id"))
	}

	text := field("text")
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	req := &reviewRequest{
		ProfessorID: professorID,
		Text:        text,
		SourceKind:  field("source_kind"),
	}

	if raw := field("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			return nil, fmt.Errorf("bad rating %q", raw)
		}

		req.Rating = &rating
	}

	if raw := field("reviewed_at"); raw != "" {
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("bad reviewed_at %q", raw)
		}

		req.ReviewedAt = &raw
	}

	return req, nil
}

func postReview(client *http.Client, baseURL string, req *reviewRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := client.Post(
		strings.TrimRight(baseURL, "/")+"/v1/reviews", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	return nil
}
