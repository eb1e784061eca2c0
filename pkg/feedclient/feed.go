package feedclient

import "sync"

// Reducer computes the next feed from the current one. Reducers never modify
// their input.
type Reducer func(posts []Post) []Post

// Prepend puts a newly created post at the head of the feed.
func Prepend(posts []Post, p Post) []Post {
	out := make([]Post, 0, len(posts)+1)
	out = append(out, p)
	return append(out, posts...)
}

// Replace swaps the entry with p's id for p, keeping its position. A feed without
// that id is returned as a copy, unchanged.
func Replace(posts []Post, p Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	for i := range out {
		if out[i].ID == p.ID {
			out[i] = p
			break
		}
	}
	return out
}

// Remove drops the entry with the given id.
func Remove(posts []Post, id uint) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Token identifies the view generation a request was issued against.
type Token uint64

// View is the client's copy of a feed. Responses to requests begun before the
// latest Reload are dropped instead of applied.
type View struct {
	mu         sync.Mutex
	generation Token
	posts      []Post
}

// Posts returns a copy of the current feed.
func (v *View) Posts() []Post {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Post, len(v.posts))
	copy(out, v.posts)
	return out
}

// Begin returns the token to pass to Apply when the request completes.
func (v *View) Begin() Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// Reload starts a new generation, invalidating every outstanding token, and
// returns the token for the fetch that will populate it.
func (v *View) Reload() Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	return v.generation
}

// Apply runs r against the feed if tok is still current and reports whether it did.
func (v *View) Apply(tok Token, r Reducer) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if tok != v.generation {
		return false
	}
	v.posts = r(v.posts)
	return true
}
