package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile [user-id]",
	Short: "Show a user's profile, stats and streak",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		var userID string
		if len(args) == 1 {
			userID = args[0]
		} else {
			var me struct {
				User struct {
					ID string `json:"id"`
				} `json:"user"`
			}
			if err := apiRequest("GET", "/auth/me", nil, nil, &me); err != nil {
				return err
			}
			userID = me.User.ID
		}

		var profile struct {
			User struct {
				Username       string `json:"username"`
				Name           string `json:"name"`
				Bio            string `json:"bio"`
				Location       string `json:"location"`
				FollowersCount int    `json:"followers_count"`
				FollowingCount int    `json:"following_count"`
				SessionCount   int    `json:"session_count"`
			} `json:"user"`
			IsFollowing bool `json:"is_following"`
		}
		if err := apiRequest("GET", "/users/"+userID, nil, nil, &profile); err != nil {
			return err
		}

		fmt.Printf("@%s  %s\n", profile.User.Username, profile.User.Name)
		if profile.User.Bio != "" {
			fmt.Println(profile.User.Bio)
		}
		if profile.User.Location != "" {
			fmt.Printf("Location: %s\n", profile.User.Location)
		}
		fmt.Printf("Followers: %d  Following: %d  Sessions: %d\n",
			profile.User.FollowersCount, profile.User.FollowingCount, profile.User.SessionCount)

		var streakResp struct {
			Streak struct {
				Current int `json:"current"`
				Longest int `json:"longest"`
			} `json:"streak"`
		}
		if err := apiRequest("GET", "/users/"+userID+"/streak", nil, nil, &streakResp); err == nil {
			fmt.Printf("Streak: %d days (longest %d)\n", streakResp.Streak.Current, streakResp.Streak.Longest)
		}

		period, _ := cmd.Flags().GetString("period")
		var statsResp struct {
			Stats struct {
				TotalSeconds int64 `json:"total_seconds"`
				SessionCount int64 `json:"session_count"`
			} `json:"stats"`
		}
		q := url.Values{"period": {period}}
		if err := apiRequest("GET", "/users/"+userID+"/stats", q, nil, &statsResp); err == nil {
			fmt.Printf("This %s: %s across %d sessions\n",
				period, formatDuration(int(statsResp.Stats.TotalSeconds)), statsResp.Stats.SessionCount)
		}

		return nil
	},
}

func init() {
	profileCmd.Flags().String("period", "week", "Stats period: week, month, year, all")
}
