package feedclient

import (
	"context"
	"errors"
)

// ErrStale is returned when a response arrived after the view was reloaded.
// The server side effect happened; the local feed was left alone.
var ErrStale = errors.New("response discarded: view was reloaded")

// ErrCancelled is returned by Delete when the user did not confirm.
var ErrCancelled = errors.New("delete cancelled")

// Session applies server responses to a View. State changes only after a
// successful round trip, so a failed call leaves the feed untouched.
type Session struct {
	client *Client
	view   *View
}

func NewSession(client *Client) *Session {
	return &Session{client: client, view: &View{}}
}

// View returns the session's feed.
func (s *Session) View() *View { return s.view }

// Load replaces the feed with the server's list.
func (s *Session) Load(ctx context.Context) error {
	tok := s.view.Reload()
	posts, err := s.client.ListPosts(ctx)
	if err != nil {
		return err
	}
	return s.apply(tok, func([]Post) []Post { return posts })
}

// LoadProfile replaces the feed with one user's posts and returns the profile.
func (s *Session) LoadProfile(ctx context.Context, userID uint) (*Profile, error) {
	tok := s.view.Reload()
	p, err := s.client.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p, s.apply(tok, func([]Post) []Post { return p.Posts })
}

func (s *Session) Create(ctx context.Context, text string, img *Image) (*Post, error) {
	tok := s.view.Begin()
	post, err := s.client.CreatePost(ctx, text, img)
	if err != nil {
		return nil, err
	}
	return post, s.apply(tok, func(posts []Post) []Post { return Prepend(posts, *post) })
}

func (s *Session) Like(ctx context.Context, id uint) (*Post, error) {
	return s.replace(ctx, func(ctx context.Context) (*Post, error) { return s.client.ToggleLike(ctx, id) })
}

func (s *Session) Comment(ctx context.Context, id uint, text string) (*Post, error) {
	return s.replace(ctx, func(ctx context.Context) (*Post, error) { return s.client.AddComment(ctx, id, text) })
}

func (s *Session) Edit(ctx context.Context, id uint, text string) (*Post, error) {
	return s.replace(ctx, func(ctx context.Context) (*Post, error) { return s.client.EditPost(ctx, id, text) })
}

// Delete asks confirm first and only then calls the server.
func (s *Session) Delete(ctx context.Context, id uint, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return ErrCancelled
	}
	tok := s.view.Begin()
	if err := s.client.DeletePost(ctx, id); err != nil {
		return err
	}
	return s.apply(tok, func(posts []Post) []Post { return Remove(posts, id) })
}

func (s *Session) replace(ctx context.Context, call func(context.Context) (*Post, error)) (*Post, error) {
	tok := s.view.Begin()
	post, err := call(ctx)
	if err != nil {
		return nil, err
	}
	return post, s.apply(tok, func(posts []Post) []Post { return Replace(posts, *post) })
}

func (s *Session) apply(tok Token, r Reducer) error {
	if !s.view.Apply(tok, r) {
		return ErrStale
	}
	return nil
}
