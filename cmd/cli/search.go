package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for users by name or username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Users []struct {
				ID             string `json:"id"`
				Username       string `json:"username"`
				Name           string `json:"name"`
				FollowersCount int    `json:"followers_count"`
			} `json:"users"`
		}
		q := url.Values{"q": {args[0]}}
		if err := apiRequest("GET", "/users/search", q, nil, &resp); err != nil {
			return err
		}

		if len(resp.Users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		for _, u := range resp.Users {
			fmt.Printf("@%-20s %-24s %d followers  (%s)\n", u.Username, truncate(u.Name, 24), u.FollowersCount, u.ID)
		}
		return nil
	},
}
