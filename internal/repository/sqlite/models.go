package sqlite

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// timeLayout keeps every stored timestamp the same width so text
// comparisons in SQL order the same way as the instants they encode.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC()
}

func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := parseTime(*s)
	return &t
}

type userModel struct {
	ID           string `gorm:"column:id;type:text;primaryKey"`
	Email        string `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash;type:text;not null"`
	Role         string `gorm:"column:role;type:text;not null"`
	Name         string `gorm:"column:name;type:text;not null"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
}

func (userModel) TableName() string {
	return "users"
}

// ticketModel keeps Unicode-folded copies of title and description.
// SQLite's LOWER() only folds ASCII, so search compares against these.
type ticketModel struct {
	ID                string  `gorm:"column:id;type:text;primaryKey"`
	Title             string  `gorm:"column:title;type:text;not null"`
	Description       string  `gorm:"column:description;type:text;not null"`
	TitleFolded       string  `gorm:"column:title_folded;type:text;not null;default:''"`
	DescriptionFolded string  `gorm:"column:description_folded;type:text;not null;default:''"`
	Priority          string  `gorm:"column:priority;type:text;not null"`
	Status            string  `gorm:"column:status;type:text;not null"`
	AssignedTo        *string `gorm:"column:assigned_to;type:text"`
	CreatedBy         string  `gorm:"column:created_by;type:text;not null;index"`
	CreatedAt         string  `gorm:"column:created_at;type:text;not null;index"`
	UpdatedAt         string  `gorm:"column:updated_at;type:text;not null"`
	SLADueAt          *string `gorm:"column:sla_due_at;type:text;index"`
	SLABreached       bool    `gorm:"column:sla_breached;not null"`
	Version           int64   `gorm:"column:version;not null"`
}

func foldForSearch(s string) string {
	return strings.ToLower(s)
}

func (ticketModel) TableName() string {
	return "tickets"
}

type commentModel struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	TicketID  string `gorm:"column:ticket_id;type:text;not null;index"`
	AuthorID  string `gorm:"column:author_id;type:text;not null"`
	Content   string `gorm:"column:content;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (commentModel) TableName() string {
	return "comments"
}

type activityModel struct {
	ID        string            `gorm:"column:id;type:text;primaryKey"`
	TicketID  string            `gorm:"column:ticket_id;type:text;not null;index"`
	ActorID   *string           `gorm:"column:actor_id;type:text"`
	Action    string            `gorm:"column:action;type:text;not null"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:text;not null"`
	CreatedAt string            `gorm:"column:created_at;type:text;not null"`
}

func (activityModel) TableName() string {
	return "ticket_activities"
}

type idempotencyModel struct {
	ID          string  `gorm:"column:id;type:text;primaryKey"`
	Scope       string  `gorm:"column:scope;type:text;not null;uniqueIndex:idx_idempotency_scope_key"`
	Key         string  `gorm:"column:key;type:text;not null;uniqueIndex:idx_idempotency_scope_key"`
	UserID      *string `gorm:"column:user_id;type:text"`
	Method      string  `gorm:"column:method;type:text;not null"`
	Route       string  `gorm:"column:route;type:text;not null"`
	RequestHash string  `gorm:"column:request_hash;type:text;not null"`
	StatusCode  int     `gorm:"column:status_code;not null"`
	ContentType string  `gorm:"column:content_type;type:text;not null"`
	Response    []byte  `gorm:"column:response;type:blob"`
	CreatedAt   string  `gorm:"column:created_at;type:text;not null"`
}

func (idempotencyModel) TableName() string {
	return "idempotency_keys"
}
