package realtime

import (
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

// Well-known topics
const (
	TopicAlerts      = "alerts"
	TopicLabActivity = "lab:activity"
)

// UserTopic is the point-to-point topic for one user
func UserTopic(userID string) string {
	return "user:" + userID
}

// ProjectTopic carries updates for one project
func ProjectTopic(projectID string) string {
	return "project:" + projectID
}

// DefaultTopics returns the topics bound to a connection right after
// authentication. Staff see lab-wide feeds; students only their own topic.
func DefaultTopics(role user.Role, userID string) []string {
	if role.IsStaff() {
		return []string{UserTopic(userID), TopicAlerts, TopicLabActivity}
	}
	return []string{UserTopic(userID)}
}

// TopicAllowed reports whether a role may subscribe to a topic. Staff may
// subscribe to anything; students only to their own user topic.
func TopicAllowed(role user.Role, userID, topic string) bool {
	if role.IsStaff() {
		return true
	}
	return topic == UserTopic(userID)
}
