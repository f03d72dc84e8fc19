package users

import "time"

// Identity maps a Slack user id to an internal lunch bot user record.
// The mapping is created once per distinct Slack id and never changes.
//
// No TableName override: table names go through the namespace-prefixing
// naming strategy configured at open time.
type Identity struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null"`
	SlackID   string    `gorm:"column:slack_id;size:190;not null;uniqueIndex"`
	Secret    string    `gorm:"column:secret;size:190;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
