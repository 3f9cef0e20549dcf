package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// List orders conversations by most recent activity.
func (r *ConversationRepository) List(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&convs).Error
	return convs, err
}

// AppendMessage inserts a message and advances the conversation's activity
// timestamp in one transaction, creating the conversation first if it does
// not exist yet. Partial writes are never observable.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		err := tx.Where("id = ?", msg.ConversationID).First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			conv = model.Conversation{}
			conv.ID = msg.ConversationID
			if err := tx.Create(&conv).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Model(&model.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", time.Now()).Error
	})
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// UpdateTitleIfEmpty sets the title only while it is still unset, so a
// user-chosen title is never overwritten by the derived one.
func (r *ConversationRepository) UpdateTitleIfEmpty(ctx context.Context, id uuid.UUID, title string) error {
	return r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ? AND (title IS NULL OR title = '')", id).
		Update("title", title).Error
}

func (r *ConversationRepository) Rename(ctx context.Context, id uuid.UUID, title string) error {
	res := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a conversation and its messages.
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
