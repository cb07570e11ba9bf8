// Command docent runs the documentation interview service.
//
// Usage:
//
//	# Start the API with ~/.config/docent/config.yaml and ./.env
//	docent serve
//
//	# Override settings through the environment
//	DOCENT_SERVER_PORT=9000 DOCENT_MODEL_API_KEY=sk-ant-... docent serve
//
//	# Check a running server
//	docent health --server http://localhost:9000
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var serverURL string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docent",
	Short: "Guided project documentation interviews backed by Claude",
	Long: `docent runs conversations that walk a project through its vision,
requirements, architecture and integration documents, tracking which
fields have been captured along the way.`,
	SilenceUsage: true,
}

func init() {
	healthCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "docent server URL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docent %s (commit %s, built %s)\n", version, gitCommit, buildDate)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check docent server health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", body.Status)
	return nil
}
