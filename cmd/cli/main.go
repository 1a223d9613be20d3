package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiBase string
	token   string
)

var rootCmd = &cobra.Command{
	Use:   "ambira",
	Short: "Ambira CLI - social productivity tracking",
	Long: `Ambira CLI talks to an Ambira backend from the terminal.
Log sessions, check your feed and streaks, and browse profiles
without opening the web app.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if token == "" {
			token = os.Getenv("AMBIRA_TOKEN")
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", envOrDefault("AMBIRA_API", "http://localhost:8686"), "Backend base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (default: AMBIRA_TOKEN env var)")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(timerCmd)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// apiRequest performs an authenticated JSON request and decodes into out
func apiRequest(method, path string, query url.Values, body io.Reader, out interface{}) error {
	u := strings.TrimSuffix(apiBase, "/") + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// requireToken exits early with a hint when no token is configured
func requireToken() error {
	if token == "" {
		return fmt.Errorf("not authenticated: set AMBIRA_TOKEN or pass --token")
	}
	return nil
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", seconds)
}
