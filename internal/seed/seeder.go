package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var projectTemplates = []struct {
	Name  string
	Color string
	Icon  string
}{
	{"Deep Work", "#4A6CF7", "brain"},
	{"Reading", "#2EB67D", "book"},
	{"Spanish", "#E8912D", "globe"},
	{"Piano", "#9B59B6", "music"},
	{"Side Project", "#E74C3C", "code"},
	{"Writing", "#1ABC9C", "pen"},
	{"Gym", "#F1C40F", "dumbbell"},
	{"Thesis", "#34495E", "graduation-cap"},
}

var sessionTitles = []string{
	"Morning focus block",
	"Deep work sprint",
	"Late night grind",
	"Pomodoro marathon",
	"Study session",
	"Getting back on track",
	"Quick practice",
	"Weekend push",
}

var groupTemplates = []struct {
	Name     string
	Category string
}{
	{"Early Risers", "productivity"},
	{"Language Learners", "learning"},
	{"Indie Hackers", "coding"},
	{"Bookworms United", "reading"},
	{"Music Practice Club", "music"},
	{"Thesis Survivors", "academic"},
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating projects...")
	projects, err := s.seedProjects(users)
	if err != nil {
		return fmt.Errorf("failed to seed projects: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating groups...")
	groups, err := s.seedGroups(users)
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}

	log("Creating sessions...")
	sessions, err := s.seedSessions(users, projects, groups, 400)
	if err != nil {
		return fmt.Errorf("failed to seed sessions: %w", err)
	}

	log("Creating supports...")
	if err := s.seedSupports(users, sessions, 800); err != nil {
		return fmt.Errorf("failed to seed supports: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, sessions, 300); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating challenges...")
	if err := s.seedChallenges(users); err != nil {
		return fmt.Errorf("failed to seed challenges: %w", err)
	}

	log("Seeding complete")
	return nil
}

// SeedTest creates the fixed accounts the e2e suite logs in with
func (s *Seeder) SeedTest() error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("testpassword123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hash := string(passwordHash)

	testUsers := []models.User{
		{Email: "alice@test.ambira.app", Username: "alice", Name: "Alice Tester", PasswordHash: &hash},
		{Email: "bob@test.ambira.app", Username: "bob", Name: "Bob Tester", PasswordHash: &hash},
		{Email: "carol@test.ambira.app", Username: "carol", Name: "Carol Tester", PasswordHash: &hash, ProfileVisibility: models.ProfileVisibilityPrivate},
	}

	for i := range testUsers {
		if err := s.db.Where("email = ?", testUsers[i].Email).FirstOrCreate(&testUsers[i]).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", testUsers[i].Email, err)
		}
	}

	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hash := string(passwordHash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) > 24 {
			username = username[:24]
		}
		username = fmt.Sprintf("%s%d", username, i)

		visibility := models.ProfileVisibilityEveryone
		if rand.Intn(10) == 0 {
			visibility = models.ProfileVisibilityPrivate
		}

		user := models.User{
			Email:             fmt.Sprintf("%s@example.com", username),
			Username:          username,
			Name:              gofakeit.Name(),
			Bio:               gofakeit.Sentence(8),
			Location:          gofakeit.City(),
			PasswordHash:      &hash,
			ProfileVisibility: visibility,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedProjects(users []models.User) (map[string][]models.Project, error) {
	projects := make(map[string][]models.Project, len(users))
	for _, user := range users {
		count := 2 + rand.Intn(3)
		picked := rand.Perm(len(projectTemplates))[:count]
		for _, idx := range picked {
			tpl := projectTemplates[idx]
			project := models.Project{
				UserID: user.ID,
				Name:   tpl.Name,
				Color:  tpl.Color,
				Icon:   tpl.Icon,
			}
			if err := s.db.Create(&project).Error; err != nil {
				return nil, err
			}
			projects[user.ID] = append(projects[user.ID], project)
		}
	}
	return projects, nil
}

func (s *Seeder) seedFollows(users []models.User) error {
	for i := range users {
		count := rand.Intn(12)
		for _, j := range rand.Perm(len(users))[:count] {
			if i == j {
				continue
			}
			follow := models.Follow{FollowerID: users[i].ID, FolloweeID: users[j].ID}
			if err := s.db.Where("follower_id = ? AND followee_id = ?", follow.FollowerID, follow.FolloweeID).
				FirstOrCreate(&follow).Error; err != nil {
				return err
			}
		}
	}

	// Rebuild the counter caches from the edges just written
	if err := s.db.Exec(`UPDATE users SET followers_count = (SELECT COUNT(*) FROM follows WHERE followee_id = users.id)`).Error; err != nil {
		return err
	}
	return s.db.Exec(`UPDATE users SET following_count = (SELECT COUNT(*) FROM follows WHERE follower_id = users.id)`).Error
}

func (s *Seeder) seedGroups(users []models.User) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(groupTemplates))
	for _, tpl := range groupTemplates {
		creator := users[rand.Intn(len(users))]
		group := models.Group{
			Name:        tpl.Name,
			Description: gofakeit.Sentence(12),
			Category:    tpl.Category,
			CreatorID:   creator.ID,
		}
		if err := s.db.Create(&group).Error; err != nil {
			return nil, err
		}

		members := []models.GroupMember{{GroupID: group.ID, UserID: creator.ID, Role: models.GroupRoleAdmin}}
		for _, j := range rand.Perm(len(users))[:5+rand.Intn(10)] {
			if users[j].ID == creator.ID {
				continue
			}
			members = append(members, models.GroupMember{GroupID: group.ID, UserID: users[j].ID, Role: models.GroupRoleMember})
		}
		if err := s.db.Create(&members).Error; err != nil {
			return nil, err
		}

		if err := s.db.Model(&group).Update("member_count", len(members)).Error; err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Seeder) seedSessions(users []models.User, projects map[string][]models.Project, groups []models.Group, count int) ([]models.Session, error) {
	sessions := make([]models.Session, 0, count)
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		userProjects := projects[user.ID]
		if len(userProjects) == 0 {
			continue
		}
		project := userProjects[rand.Intn(len(userProjects))]

		visibility := models.VisibilityEveryone
		switch rand.Intn(10) {
		case 0:
			visibility = models.VisibilityPrivate
		case 1, 2:
			visibility = models.VisibilityFollowers
		}

		var groupIDs models.StringArray
		if visibility != models.VisibilityPrivate && rand.Intn(4) == 0 {
			groupIDs = models.StringArray{groups[rand.Intn(len(groups))].ID}
		}

		session := models.Session{
			UserID:      user.ID,
			ProjectID:   project.ID,
			Title:       sessionTitles[rand.Intn(len(sessionTitles))],
			Description: gofakeit.Sentence(10),
			Duration:    (5 + rand.Intn(180)) * 60,
			Visibility:  visibility,
			GroupIDs:    groupIDs,
			CreatedAt:   time.Now().Add(-time.Duration(rand.Intn(60*24)) * time.Hour),
		}
		if err := s.db.Create(&session).Error; err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, s.db.Exec(`UPDATE users SET session_count = (SELECT COUNT(*) FROM sessions WHERE user_id = users.id AND deleted_at IS NULL)`).Error
}

func (s *Seeder) seedSupports(users []models.User, sessions []models.Session, count int) error {
	for i := 0; i < count; i++ {
		session := sessions[rand.Intn(len(sessions))]
		user := users[rand.Intn(len(users))]
		support := models.Support{SessionID: session.ID, UserID: user.ID}
		if err := s.db.Where("session_id = ? AND user_id = ?", session.ID, user.ID).
			FirstOrCreate(&support).Error; err != nil {
			return err
		}
	}
	return s.db.Exec(`UPDATE sessions SET support_count = (SELECT COUNT(*) FROM supports WHERE session_id = sessions.id)`).Error
}

func (s *Seeder) seedComments(users []models.User, sessions []models.Session, count int) error {
	var created []models.Comment
	for i := 0; i < count; i++ {
		session := sessions[rand.Intn(len(sessions))]
		user := users[rand.Intn(len(users))]

		comment := models.Comment{
			SessionID: session.ID,
			UserID:    user.ID,
			Content:   gofakeit.Sentence(6 + rand.Intn(10)),
		}

		// A quarter of comments reply to an earlier top-level comment
		if len(created) > 0 && rand.Intn(4) == 0 {
			parent := created[rand.Intn(len(created))]
			if parent.ParentID == nil {
				comment.SessionID = parent.SessionID
				comment.ParentID = &parent.ID
			}
		}

		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		created = append(created, comment)
	}

	if err := s.db.Exec(`UPDATE sessions SET comment_count = (SELECT COUNT(*) FROM comments WHERE session_id = sessions.id AND is_deleted = false AND deleted_at IS NULL)`).Error; err != nil {
		return err
	}
	return s.db.Exec(`UPDATE comments SET reply_count = (SELECT COUNT(*) FROM comments AS replies WHERE replies.parent_id = comments.id AND replies.is_deleted = false AND replies.deleted_at IS NULL)`).Error
}

func (s *Seeder) seedChallenges(users []models.User) error {
	now := time.Now()
	challenges := []models.Challenge{
		{
			Name:        "February Focus",
			Description: "Log 20 hours of focused work this month",
			Type:        models.ChallengeTotalHours,
			Goal:        20,
			StartAt:     now.AddDate(0, 0, -10),
			EndAt:       now.AddDate(0, 0, 20),
		},
		{
			Name:        "Consistency Counts",
			Description: "Log 30 sessions before the window closes",
			Type:        models.ChallengeSessionCount,
			Goal:        30,
			StartAt:     now.AddDate(0, 0, -5),
			EndAt:       now.AddDate(0, 1, 0),
		},
		{
			Name:        "Two Week Streak",
			Description: "Keep a 14 day streak alive",
			Type:        models.ChallengeStreakDays,
			Goal:        14,
			StartAt:     now,
			EndAt:       now.AddDate(0, 1, 0),
		},
	}

	for i := range challenges {
		challenges[i].CreatorID = users[rand.Intn(len(users))].ID
		if err := s.db.Create(&challenges[i]).Error; err != nil {
			return err
		}

		// Progress is seconds for total_hours challenges, units otherwise
		unit := 1
		if challenges[i].Type == models.ChallengeTotalHours {
			unit = 3600
		}

		var participants []models.ChallengeParticipant
		for _, j := range rand.Perm(len(users))[:10+rand.Intn(15)] {
			participants = append(participants, models.ChallengeParticipant{
				ChallengeID: challenges[i].ID,
				UserID:      users[j].ID,
				Progress:    rand.Intn(challenges[i].Goal*unit + 1),
			})
		}
		if err := s.db.Create(&participants).Error; err != nil {
			return err
		}
		if err := s.db.Model(&challenges[i]).Update("participant_count", len(participants)).Error; err != nil {
			return err
		}
	}
	return nil
}
