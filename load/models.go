package load

import (
	"time"

	"gorm.io/datatypes"
)

// Relational row models. Primary keys are the natural ids carried by
// the clean graph, so reloading the same graph upserts instead of
// duplicating.

type RawExportRow struct {
	ExportID   string    `gorm:"primaryKey;type:varchar(64)" json:"export_id"`
	UserID     string    `gorm:"type:varchar(128);index;not null" json:"user_id"`
	ExportDate time.Time `json:"export_date"`
	SourceFile string    `gorm:"type:varchar(255)" json:"source_file"`
	CreatedAt  time.Time `json:"created_at"`
}

func (RawExportRow) TableName() string { return "raw_exports" }

type ConversationRow struct {
	ConversationID   string    `gorm:"primaryKey;type:varchar(128)" json:"conversation_id"`
	ExportID         string    `gorm:"type:varchar(64);index;not null" json:"export_id"`
	DisplayName      string    `gorm:"type:varchar(255)" json:"display_name"`
	ConversationType string    `gorm:"type:varchar(16)" json:"conversation_type"`
	FirstMessageTime time.Time `json:"first_message_time"`
	LastMessageTime  time.Time `json:"last_message_time"`
	MessageCount     int       `gorm:"not null" json:"message_count"`
	ParticipantCount int       `gorm:"not null" json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (ConversationRow) TableName() string { return "conversations" }

// ParticipantRow keys on the composite (conversation_id, user_id) so
// the same upsert path covers it.
type ParticipantRow struct {
	ConversationID string `gorm:"primaryKey;type:varchar(128)" json:"conversation_id"`
	UserID         string `gorm:"primaryKey;type:varchar(128)" json:"user_id"`
	DisplayName    string `gorm:"type:varchar(255)" json:"display_name"`
	IsSelf         bool   `json:"is_self"`
}

func (ParticipantRow) TableName() string { return "participants" }

type MessageRow struct {
	MessageID      string         `gorm:"primaryKey;type:varchar(64)" json:"message_id"`
	ConversationID string         `gorm:"type:varchar(128);index;not null" json:"conversation_id"`
	Timestamp      time.Time      `gorm:"index;not null" json:"timestamp"`
	SenderID       string         `gorm:"type:varchar(128);index" json:"sender_id"`
	SenderName     string         `gorm:"type:varchar(255)" json:"sender_name"`
	Content        string         `gorm:"type:text" json:"content"`
	MessageType    string         `gorm:"type:varchar(16);index" json:"message_type"`
	IsEdited       bool           `json:"is_edited"`
	IsDeleted      bool           `json:"is_deleted"`
	Payload        datatypes.JSON `json:"payload"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (MessageRow) TableName() string { return "messages" }

type AttachmentRow struct {
	AttachmentID string `gorm:"primaryKey;type:varchar(64)" json:"attachment_id"`
	MessageID    string `gorm:"type:varchar(64);index;not null" json:"message_id"`
	FileName     string `gorm:"type:varchar(255)" json:"file_name"`
	ContentType  string `gorm:"type:varchar(128)" json:"content_type"`
	SizeBytes    int64  `json:"size_bytes"`
	Location     string `gorm:"type:varchar(512)" json:"location"`
}

func (AttachmentRow) TableName() string { return "attachments" }
