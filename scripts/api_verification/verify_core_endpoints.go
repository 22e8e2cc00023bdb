// Package main provides a utility script to smoke-test a running gateway.
// It can be run with: go run scripts/api_verification/verify_core_endpoints.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/folio-site/folio-backend/pkg/feedbackapi"
	"github.com/folio-site/folio-backend/types"
)

const baseURLEnvVar = "API_BASE_URL"

type EndpointTest struct {
	Name           string
	Path           string
	ExpectedStatus int
}

func main() {
	baseURL := os.Getenv(baseURLEnvVar)
	if baseURL == "" {
		baseURL = feedbackapi.DefaultBaseURL
		fmt.Printf("No %s environment variable found, using default: %s\n", baseURLEnvVar, baseURL)
	}

	fmt.Println("Folio Feedback API Verification Tool")
	fmt.Println("====================================")
	fmt.Printf("Target API: %s\n\n", baseURL)

	healthEndpoints := []EndpointTest{
		{Name: "Health Check", Path: "/health", ExpectedStatus: http.StatusOK},
		{Name: "Liveness Check", Path: "/health/liveness", ExpectedStatus: http.StatusOK},
		{Name: "Readiness Check", Path: "/health/readiness", ExpectedStatus: http.StatusOK},
		{Name: "Metrics", Path: "/metrics", ExpectedStatus: http.StatusOK},
	}

	successCount := 0
	totalCount := 0
	report := func(name string, err error) {
		totalCount++
		if err != nil {
			fmt.Printf("❌ %s failed: %v\n", name, err)
			return
		}
		successCount++
		fmt.Printf("✅ %s\n", name)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	for _, test := range healthEndpoints {
		report(test.Name, testEndpoint(httpClient, baseURL, test))
	}

	client, err := feedbackapi.NewClient(baseURL)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	report("Feedback round trip", roundTrip(client))

	fmt.Println("\nTest Summary:")
	fmt.Printf("Passed: %d/%d\n", successCount, totalCount)

	if successCount == totalCount {
		fmt.Println("✅ All tested endpoints are working as expected!")
	} else {
		fmt.Println("❌ Some endpoints failed testing.")
		os.Exit(1)
	}
}

func testEndpoint(client *http.Client, baseURL string, test EndpointTest) error {
	resp, err := client.Get(baseURL + test.Path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != test.ExpectedStatus {
		return fmt.Errorf("HTTP %d, expected %d", resp.StatusCode, test.ExpectedStatus)
	}
	return nil
}

// roundTrip creates a record, reads it back and removes it again.
func roundTrip(client *feedbackapi.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := client.Create(ctx, types.FeedbackCreate{
		Name:    "API verification",
		Email:   "verify@example.com",
		Message: fmt.Sprintf("smoke test at %s", time.Now().UTC().Format(time.RFC3339)),
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	if _, err := client.Get(ctx, created.ID); err != nil {
		return fmt.Errorf("get: %w", err)
	}

	items, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(items) == 0 || items[0].ID != created.ID {
		return fmt.Errorf("list: newest record is not the one just created")
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if _, err := client.Get(ctx, created.ID); !feedbackapi.IsNotFound(err) {
		return fmt.Errorf("get after delete: expected not found, got %v", err)
	}
	return nil
}
