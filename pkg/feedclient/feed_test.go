package feedclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(posts []Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestReducers(t *testing.T) {
	feed := []Post{{ID: 3, Text: "c"}, {ID: 2, Text: "b"}, {ID: 1, Text: "a"}}

	t.Run("prepend", func(t *testing.T) {
		out := Prepend(feed, Post{ID: 4})
		assert.Equal(t, []uint{4, 3, 2, 1}, ids(out))
		assert.Equal(t, []uint{3, 2, 1}, ids(feed))
	})

	t.Run("replace keeps order", func(t *testing.T) {
		out := Replace(feed, Post{ID: 2, Text: "edited", Likes: []uint{9}})
		assert.Equal(t, []uint{3, 2, 1}, ids(out))
		assert.Equal(t, "edited", out[1].Text)
		assert.Equal(t, "b", feed[1].Text)
	})

	t.Run("replace unknown id", func(t *testing.T) {
		out := Replace(feed, Post{ID: 42})
		assert.Equal(t, feed, out)
	})

	t.Run("remove", func(t *testing.T) {
		assert.Equal(t, []uint{3, 1}, ids(Remove(feed, 2)))
		assert.Equal(t, []uint{3, 2, 1}, ids(Remove(feed, 42)))
		assert.Len(t, feed, 3)
	})
}

func TestView_DropsStaleResponses(t *testing.T) {
	var v View
	load := v.Reload()
	assert.True(t, v.Apply(load, func([]Post) []Post {
		return []Post{{ID: 1}}
	}))

	inFlight := v.Begin()
	v.Reload()

	applied := v.Apply(inFlight, func(p []Post) []Post { return Prepend(p, Post{ID: 2}) })
	assert.False(t, applied)
	assert.Equal(t, []uint{1}, ids(v.Posts()))
}
