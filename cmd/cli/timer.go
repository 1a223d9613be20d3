package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control your live session timer",
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		var resp struct {
			ActiveSession struct {
				Status  string `json:"status"`
				Project struct {
					Name string `json:"name"`
				} `json:"project"`
				StartTime string `json:"start_time"`
			} `json:"active_session"`
			Elapsed int `json:"elapsed"`
		}
		if err := apiRequest("GET", "/timer", nil, nil, &resp); err != nil {
			return err
		}

		fmt.Printf("%s  %s  %s elapsed\n",
			resp.ActiveSession.Status, resp.ActiveSession.Project.Name, formatDuration(resp.Elapsed))
		return nil
	},
}

var timerStartCmd = &cobra.Command{
	Use:   "start <project-id>",
	Short: "Start a timer for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		body, _ := json.Marshal(map[string]string{"project_id": args[0]})
		if err := apiRequest("POST", "/timer/start", nil, bytes.NewReader(body), nil); err != nil {
			return err
		}
		fmt.Println("Timer started.")
		return nil
	},
}

var timerPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		if err := apiRequest("POST", "/timer/pause", nil, nil, nil); err != nil {
			return err
		}
		fmt.Println("Timer paused.")
		return nil
	},
}

var timerResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		if err := apiRequest("POST", "/timer/resume", nil, nil, nil); err != nil {
			return err
		}
		fmt.Println("Timer resumed.")
		return nil
	},
}

var timerFinishCmd = &cobra.Command{
	Use:   "finish <title>",
	Short: "Finish the timer and log the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		visibility, _ := cmd.Flags().GetString("visibility")
		description, _ := cmd.Flags().GetString("description")

		body, _ := json.Marshal(map[string]string{
			"title":       args[0],
			"description": description,
			"visibility":  visibility,
		})

		var resp struct {
			Session struct {
				ID       string `json:"id"`
				Duration int    `json:"duration"`
			} `json:"session"`
		}
		if err := apiRequest("POST", "/timer/finish", nil, bytes.NewReader(body), &resp); err != nil {
			return err
		}
		fmt.Printf("Logged %s (session %s)\n", formatDuration(resp.Session.Duration), resp.Session.ID)
		return nil
	},
}

var timerDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Abandon the timer without logging",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		if err := apiRequest("DELETE", "/timer", nil, nil, nil); err != nil {
			return err
		}
		fmt.Println("Timer discarded.")
		return nil
	},
}

func init() {
	timerFinishCmd.Flags().String("visibility", "everyone", "Session visibility: everyone, followers, private")
	timerFinishCmd.Flags().String("description", "", "Session description")

	timerCmd.AddCommand(timerStatusCmd)
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerPauseCmd)
	timerCmd.AddCommand(timerResumeCmd)
	timerCmd.AddCommand(timerFinishCmd)
	timerCmd.AddCommand(timerDiscardCmd)
}
