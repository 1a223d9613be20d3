package handlers

import (
	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/models"
)

// isFollowing reports whether followerID follows followeeID
func isFollowing(followerID, followeeID string) bool {
	if followerID == "" || followerID == followeeID {
		return followerID == followeeID
	}
	var count int64
	database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count)
	return count > 0
}

// followingIDs returns the IDs the user follows, plus the user's own ID so
// their sessions appear in their home feed.
func followingIDs(userID string) ([]string, error) {
	var ids []string
	err := database.DB.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return append(ids, userID), nil
}

// isGroupMember reports whether the user belongs to the group
func isGroupMember(groupID, userID string) bool {
	var count int64
	database.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count)
	return count > 0
}

// groupRole returns the user's role in a group, or "" when not a member
func groupRole(groupID, userID string) models.GroupRole {
	var member models.GroupMember
	err := database.DB.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		return ""
	}
	return member.Role
}

// canViewProfile reports whether viewer may see a user's profile details.
// Private profiles are visible to the owner and their followers.
func canViewProfile(user *models.User, viewerID string) bool {
	if user.ProfileVisibility != models.ProfileVisibilityPrivate {
		return true
	}
	if viewerID == user.ID {
		return true
	}
	return isFollowing(viewerID, user.ID)
}
