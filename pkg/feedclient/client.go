// Package feedclient is a Go client for the socialnet REST API that keeps a local
// feed in step with the server.
package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Profile is the body of the user profile endpoints.
type Profile struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}

// Image is an optional file attached to a new post.
type Image struct {
	Filename string
	Content  []byte
}

// Client calls the API with a bearer token. It never retries.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for baseURL, e.g. "http://localhost:5000".
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := c.do(ctx, http.MethodGet, "/api/posts", nil, "", &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, id uint) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, postPath(id, ""), nil, "", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost sends text and an optional image as multipart/form-data.
func (c *Client) CreatePost(ctx context.Context, text string, img *Image) (*Post, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("text", text); err != nil {
		return nil, err
	}
	if img != nil {
		part, err := w.CreateFormFile("image", img.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(img.Content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", &buf, w.FormDataContentType(), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ToggleLike flips the caller's like.
func (c *Client) ToggleLike(ctx context.Context, id uint) (*Post, error) {
	return c.postMutation(ctx, http.MethodPost, postPath(id, "/like"), nil)
}

// Like adds the caller's like; repeating it is a no-op.
func (c *Client) Like(ctx context.Context, id uint) (*Post, error) {
	return c.postMutation(ctx, http.MethodPut, postPath(id, "/like"), nil)
}

// Unlike removes the caller's like; repeating it is a no-op.
func (c *Client) Unlike(ctx context.Context, id uint) (*Post, error) {
	return c.postMutation(ctx, http.MethodDelete, postPath(id, "/like"), nil)
}

func (c *Client) AddComment(ctx context.Context, id uint, text string) (*Post, error) {
	return c.postMutation(ctx, http.MethodPost, postPath(id, "/comment"), map[string]string{"text": text})
}

func (c *Client) EditPost(ctx context.Context, id uint, text string) (*Post, error) {
	return c.postMutation(ctx, http.MethodPut, postPath(id, ""), map[string]string{"text": text})
}

func (c *Client) DeletePost(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, postPath(id, ""), nil, "", nil)
}

func (c *Client) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	return c.profile(ctx, "/api/users/"+strconv.FormatUint(uint64(userID), 10))
}

func (c *Client) GetMyProfile(ctx context.Context) (*Profile, error) {
	return c.profile(ctx, "/api/users/me")
}

// UpdateMyProfile changes the fields that are non-nil.
func (c *Client) UpdateMyProfile(ctx context.Context, bio, picture *string) (*User, error) {
	body := map[string]*string{}
	if bio != nil {
		body["bio"] = bio
	}
	if picture != nil {
		body["profile_picture"] = picture
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/users/me", bytes.NewReader(payload), "application/json", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) profile(ctx context.Context, path string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, path, nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) postMutation(ctx context.Context, method, path string, body any) (*Post, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader, contentType = bytes.NewReader(payload), "application/json"
	}
	var post Post
	if err := c.do(ctx, method, path, reader, contentType, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func postPath(id uint, suffix string) string {
	return "/api/posts/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
