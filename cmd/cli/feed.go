package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type feedSession struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	User  struct {
		Username string `json:"username"`
	} `json:"user"`
	Project struct {
		Name string `json:"name"`
	} `json:"project"`
	Duration     int    `json:"duration"`
	SupportCount int    `json:"support_count"`
	CommentCount int    `json:"comment_count"`
	CreatedAt    string `json:"created_at"`
}

type feedPage struct {
	Sessions   []feedSession `json:"sessions"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show your home feed (or the global feed with --global)",
	RunE: func(cmd *cobra.Command, args []string) error {
		global, _ := cmd.Flags().GetBool("global")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		cursor, _ := cmd.Flags().GetString("cursor")

		path := "/feed"
		if global {
			path = "/feed/global"
		} else if err := requireToken(); err != nil {
			return err
		}

		q := url.Values{"page_size": {strconv.Itoa(pageSize)}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page feedPage
		if err := apiRequest("GET", path, q, nil, &page); err != nil {
			return err
		}

		if len(page.Sessions) == 0 {
			fmt.Println("No sessions to show.")
			return nil
		}

		for _, s := range page.Sessions {
			fmt.Printf("@%-18s %-30s %-14s %8s  +%d / %d comments\n",
				s.User.Username, truncate(s.Title, 30), truncate(s.Project.Name, 14),
				formatDuration(s.Duration), s.SupportCount, s.CommentCount)
		}
		if page.HasMore {
			fmt.Printf("\nMore available: --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func init() {
	feedCmd.Flags().Bool("global", false, "Show the public discover feed instead")
	feedCmd.Flags().Int("page-size", 20, "Sessions per page")
	feedCmd.Flags().String("cursor", "", "Resume from a previous page's cursor")
}
