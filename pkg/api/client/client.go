package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is used when no API address is configured.
const DefaultBaseURL = "http://localhost:4000"

// Client provides typed access to the task manager API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// User reflects API account payloads.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse is returned by sign-up and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// RegisterInput captures the sign-up payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age,omitempty"`
}

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/users", input, "", &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", body, "", &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Logout revokes the session behind token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/users/logout", nil, token, nil)
}

// LogoutAll revokes every session of the account.
func (c *Client) LogoutAll(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/users/logout-all", nil, token, nil)
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, token, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Task represents API task payloads.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListTasksInput narrows a task listing. Zero values leave the server defaults.
type ListTasksInput struct {
	Completed *bool
	Limit     int
	Skip      int
	Sort      string
}

func (in ListTasksInput) query() string {
	values := url.Values{}
	if in.Completed != nil {
		values.Set("completed", strconv.FormatBool(*in.Completed))
	}
	if in.Limit > 0 {
		values.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.Skip > 0 {
		values.Set("skip", strconv.Itoa(in.Skip))
	}
	if in.Sort != "" {
		values.Set("sort", in.Sort)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// ListTasks returns the caller's tasks.
func (c *Client) ListTasks(ctx context.Context, token string, input ListTasksInput) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks"+input.query(), nil, token, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask adds a task owned by the caller.
func (c *Client) CreateTask(ctx context.Context, token, description string) (Task, error) {
	body := map[string]any{"description": description}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", body, token, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// SetTaskCompleted flips the completed flag of a task.
func (c *Client) SetTaskCompleted(ctx context.Context, token, taskID string, completed bool) (Task, error) {
	path := fmt.Sprintf("/tasks/%s", url.PathEscape(taskID))
	var task Task
	if err := c.do(ctx, http.MethodPatch, path, map[string]any{"completed": completed}, token, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task and returns it.
func (c *Client) DeleteTask(ctx context.Context, token, taskID string) (Task, error) {
	path := fmt.Sprintf("/tasks/%s", url.PathEscape(taskID))
	var task Task
	if err := c.do(ctx, http.MethodDelete, path, nil, token, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}
