// Command validate smoke-tests a running sales dashboard server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type endpoint struct {
	path        string
	method      string
	status      int
	contentType string
	contains    []string
}

var endpoints = []endpoint{
	{path: "/api/health", contains: []string{`"status":"ok"`}},
	{path: "/dashboard/options", contains: []string{`"times_of_sale"`, `"Morning"`}},
	{path: "/dashboard/kpis", contains: []string{`"total_sales"`, `"distinct_orders"`}},
	{path: "/dashboard/views"},

	// one request per view
	{path: "/dashboard/views/day"},
	{path: "/dashboard/views/week"},
	{path: "/dashboard/views/month"},
	{path: "/dashboard/views/interactive", contains: []string{`"moving_average"`}},
	{path: "/dashboard/views/time_of_day"},
	{path: "/dashboard/views/sales_trends"},
	{path: "/dashboard/views/payment_methods"},
	{path: "/dashboard/views/staff_performance"},
	{path: "/dashboard/views/item_preferences"},
	{path: "/dashboard/views/top_selling"},
	{path: "/dashboard/views/high_revenue"},
	{path: "/dashboard/views/day_of_week"},
	{path: "/dashboard/views/popularity", contains: []string{`"cells"`}},
	{path: "/dashboard/views/flow", contains: []string{`"nodes"`, `"edges"`}},
	{path: "/dashboard/views/kpi"},
	{path: "/dashboard/views/all"},

	{path: "/dashboard/aggregate?group_by=month,item_type&measure=quantity&reducer=sum", contains: []string{`"groups"`}},
	{path: "/dashboard/records?limit=5", contains: []string{`"total"`}},
	{path: "/dashboard/export.csv", contentType: "text/csv", contains: []string{"order_id,"}},
	{path: "/dashboard/export.xlsx", contentType: "spreadsheetml"},
	{path: "/files", contains: []string{`"files"`}},
	{path: "/api/backup", contentType: "application/zip"},

	// caller errors
	{path: "/dashboard/views/yearly", status: http.StatusNotFound, contains: []string{`"error"`}},
	{path: "/dashboard/kpis?start=2030-01-01&end=2020-01-01", status: http.StatusBadRequest, contains: []string{"invalid range"}},
}

type result struct {
	endpoint endpoint
	status   int
	duration time.Duration
	err      error
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Int("timeout", 10, "Request timeout in seconds")
	reload := flag.Bool("reload", false, "Also POST /dashboard/reload")
	flag.Parse()

	client := &http.Client{
		Timeout: time.Duration(*timeout) * time.Second,
	}

	checks := endpoints
	if *reload {
		checks = append(checks, endpoint{path: "/dashboard/reload", method: http.MethodPost, contains: []string{`"records"`}})
	}

	fmt.Printf("Validating server at %s\n", *url)
	fmt.Printf("Testing %d endpoints...\n\n", len(checks))

	var passed, failed int
	for _, ep := range checks {
		if ep.method == "" {
			ep.method = http.MethodGet
		}
		if ep.status == 0 {
			ep.status = http.StatusOK
		}
		if ep.contentType == "" {
			ep.contentType = "application/json"
		}

		r := validateEndpoint(client, *url, ep)
		if r.err != nil {
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Error: %v\n", r.err)
			continue
		}
		passed++
		if *verbose {
			fmt.Printf("PASS %s %s %d (%v)\n", ep.method, ep.path, r.status, r.duration)
		}
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func validateEndpoint(client *http.Client, baseURL string, ep endpoint) result {
	start := time.Now()

	req, err := http.NewRequest(ep.method, baseURL+ep.path, nil)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to read body: %w", err)}
	}

	r := result{
		endpoint: ep,
		status:   resp.StatusCode,
		duration: time.Since(start),
	}

	if resp.StatusCode != ep.status {
		r.err = fmt.Errorf("status %d, expected %d", resp.StatusCode, ep.status)
		return r
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, ep.contentType) {
		r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return r
	}

	if ep.contentType == "application/json" {
		var js any
		if err := json.Unmarshal(body, &js); err != nil {
			r.err = fmt.Errorf("invalid JSON: %w", err)
			return r
		}
	}

	for _, needle := range ep.contains {
		if !strings.Contains(string(body), needle) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}
