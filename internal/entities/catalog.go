package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Book is a catalog entry. CommentRefs holds the ids of the book's comments in
// the order they were attached.
type Book struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"_id"`
	Title       string                      `gorm:"size:512;not null" json:"title" validate:"required,notblank,max=512"`
	CommentRefs datatypes.JSONSlice[string] `gorm:"not null" json:"comments"`
	Revision    int                         `gorm:"not null;default:0" json:"__v"`
	CreatedAt   time.Time                   `gorm:"index" json:"-"`
	UpdatedAt   time.Time                   `json:"-"`
}

// BeforeCreate assigns the id and normalizes an absent ref list to [].
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CommentRefs == nil {
		b.CommentRefs = datatypes.JSONSlice[string]{}
	}
	return nil
}

// Comment is free text attached to exactly one book. BookID never changes after creation.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	BookID    string    `gorm:"index;size:36;not null" json:"bookId" validate:"required,uuid"`
	Text      string    `gorm:"type:text;not null" json:"comment" validate:"required,notblank"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// BookCommentRow is one row of the books LEFT JOIN comments query. Books
// without comments produce a single row with null comment columns.
type BookCommentRow struct {
	BookID      string
	Title       string
	Revision    int
	CommentID   *string
	CommentText *string
}

func (Book) TableName() string {
	return "books"
}

func (Comment) TableName() string {
	return "comments"
}
