package models

import (
	"time"
)

// Post is the aggregate root: a post together with its likes and comments. Likes and
// comments have no lifecycle of their own and are destroyed with the post.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   Author `gorm:"foreignKey:UserID" json:"user"`
	Text   string `gorm:"type:text;not null" json:"text"`
	Image  string `json:"image,omitempty"`
	// LikeRecords is the persisted like set; Likes is its API projection.
	LikeRecords []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Likes       []uint    `gorm:"-" json:"likes"`
	Comments    []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID uint) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Hydrate derives the API projections from the loaded relations so that an empty
// post serializes with "likes": [] and "comments": [].
func (p *Post) Hydrate() {
	p.Likes = make([]uint, 0, len(p.LikeRecords))
	for _, l := range p.LikeRecords {
		p.Likes = append(p.Likes, l.UserID)
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}
