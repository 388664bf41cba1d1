package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"orderbot/internal/dialog"
)

var (
	sendSession string
	sendText    string
)

// sendExamples are shown in the help text of send.
var sendExamples = []string{
	`orderbotctl send confirm_order product="iPhone 15" number=1 --session demo`,
	`orderbotctl send confirm_order product="iPhone 15" product="AirPods Pro" number=1 number=2`,
	`orderbotctl send identify_customer email=emma@example.com --session demo`,
	`orderbotctl send select_payment_method payment_method=COD --session demo`,
}

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <intent> [key=value ...]",
		Short: "Send one intent to the webhook as the dialog platform would",
		Long: `Send one intent to the webhook as the dialog platform would.

Parameters are key=value pairs. Repeating a key sends a list, which is how
multi-product carts are expressed.

Examples:
  ` + strings.Join(sendExamples, "\n  "),
		Args: cobra.MinimumNArgs(1),
		RunE: runSend,
	}

	cmd.Flags().StringVarP(&sendSession, "session", "s", "cli", "conversation session id")
	cmd.Flags().StringVarP(&sendText, "text", "t", "", "user utterance (defaults to the intent name)")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	req := buildRequest(sendSession, args[0], sendText, params)
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	if verbose {
		fmt.Printf("\n%s▶ REQUEST%s %sPOST /webhook%s\n", colorCyan, colorReset, colorBold, colorReset)
		printJSON(body, "  ")
	}

	start := time.Now()
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+"/webhook", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if verbose {
		printResponse(resp.StatusCode, respBody, time.Since(start))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var reply dialog.WebhookResponse
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	fmt.Println(reply.FulfillmentText)
	if !quiet {
		for _, c := range reply.OutputContexts {
			fmt.Printf("%s  context %s (lifespan %d)%s\n", colorGray, c.Name, c.LifespanCount, colorReset)
		}
	}
	return nil
}

// buildRequest wraps an intent in the fulfillment envelope the webhook expects.
func buildRequest(sessionID, intent, text string, params dialog.Params) *dialog.WebhookRequest {
	if text == "" {
		text = intent
	}
	return &dialog.WebhookRequest{
		Session: "projects/orderbotctl/agent/sessions/" + sessionID,
		QueryResult: dialog.QueryResult{
			QueryText:  text,
			Intent:     dialog.Intent{DisplayName: intent},
			Parameters: params,
		},
	}
}

// parseParams turns key=value pairs into webhook parameters. Repeated keys
// become lists.
func parseParams(pairs []string) (dialog.Params, error) {
	params := dialog.Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", pair)
		}
		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case []any:
			params[key] = append(existing, value)
		default:
			params[key] = []any{existing, value}
		}
	}
	return params, nil
}
