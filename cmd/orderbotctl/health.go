package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the webhook and its database connection",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	start := time.Now()
	resp, err := client.Get(strings.TrimRight(serverURL, "/") + "/health")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if verbose {
		printResponse(resp.StatusCode, body, time.Since(start))
	}

	var h healthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if h.Status != "ok" {
		printError("status %s, database %s", h.Status, h.Database)
		return fmt.Errorf("webhook unhealthy (HTTP %d)", resp.StatusCode)
	}
	printSuccess("status %s, database %s, version %s", h.Status, h.Database, h.Version)
	return nil
}
