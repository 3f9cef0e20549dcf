package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Conversation struct {
	BaseModel
	Title string `gorm:"size:255" json:"title"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Citation points an answer back at the chunk it was grounded on. Citations
// are derived per turn and stored on the assistant message so they stay
// reproducible without re-querying the index.
type Citation struct {
	DocumentID   uuid.UUID `json:"document_id"`
	DocumentName string    `json:"document_name"`
	PageNumber   int       `json:"page_number"`
	ChunkID      uuid.UUID `json:"chunk_id"`
	Score        float64   `json:"score"`
	Excerpt      string    `json:"excerpt,omitempty"`
}

type CitationList []Citation

func (c CitationList) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *CitationList) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, c)
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID    `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           MessageRole  `gorm:"size:20;not null" json:"role"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	Grounded       bool         `gorm:"default:false" json:"grounded"`
	Cancelled      bool         `gorm:"default:false" json:"cancelled"`
	ChunkIDs       StringArray  `gorm:"type:jsonb" json:"chunk_ids,omitempty"`
	Citations      CitationList `gorm:"type:jsonb" json:"citations,omitempty"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}
