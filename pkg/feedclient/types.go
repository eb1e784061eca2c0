package feedclient

import "time"

// Author is the populated user shown on posts and comments.
type Author struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
}

type Comment struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	UserID    uint      `json:"user_id"`
	User      Author    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Post mirrors the server's post representation. Likes holds the ids of the users
// who liked it.
type Post struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	User      Author    `json:"user"`
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"`
	Likes     []uint    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
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

// User is a public profile.
type User struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// errorBody is the JSON the server sends with non-2xx responses.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
