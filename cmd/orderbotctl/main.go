// orderbotctl is an operator tool for the order bot webhook.
// Each command performs a single operation, making it composable for scripts.
//
// Examples:
//
//	orderbotctl send confirm_order product="iPhone 15" number=1 --session demo
//	orderbotctl send identify_customer email=emma@example.com --session demo
//	orderbotctl health
//	orderbotctl migrate --seed
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var Version = "dev"

// Global flags (apply to all commands)
var (
	serverURL string
	quiet     bool
	verbose   bool
)

var client = &http.Client{Timeout: 30 * time.Second}

// ANSI color codes
var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "orderbotctl",
		Short:         "orderbotctl - drive and operate the order bot webhook",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "url", envOr("ORDERBOT_URL", "http://localhost:8080"), "webhook base URL")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only the reply text")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print full request and response bodies")

	root.AddCommand(sendCmd())
	root.AddCommand(healthCmd())
	root.AddCommand(migrateCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printSuccess(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...any) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}
