package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type apiError struct {
	Error string `json:"error"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Success  bool   `json:"success"`
}

type author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type message struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uint      `json:"user_id"`
	User      author    `json:"user"`
}

type timelineResponse struct {
	Data  []message `json:"data"`
	Count int       `json:"count"`
}

type likeResponse struct {
	MessageID uint `json:"message_id"`
	Liked     bool `json:"liked"`
}

// client talks to the warbler JSON API.
type client struct {
	http *resty.Client
}

func newClient(baseURL string) *client {
	return &client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
	}
}

func failure(resp *resty.Response, fallback string) error {
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		return errors.New(e.Error)
	}
	return fmt.Errorf("%s (HTTP %d)", fallback, resp.StatusCode())
}

// login exchanges credentials for a token and keeps it for later calls.
func (c *client) login(username, password string) (loginResponse, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/api/v1/auth/login")
	if err != nil {
		return out, fmt.Errorf("server not reachable: %w", err)
	}
	if resp.IsError() {
		return out, failure(resp, "login failed")
	}
	c.http.SetAuthToken(out.Token)
	return out, nil
}

func (c *client) timeline() ([]message, error) {
	var out timelineResponse
	resp, err := c.http.R().
		SetResult(&out).
		SetError(&apiError{}).
		Get("/api/v1/timeline")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, failure(resp, "could not load timeline")
	}
	return out.Data, nil
}

func (c *client) post(text string) error {
	resp, err := c.http.R().
		SetBody(map[string]string{"text": text}).
		SetError(&apiError{}).
		Post("/api/v1/messages")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return failure(resp, "could not post message")
	}
	return nil
}

func (c *client) toggleLike(id uint) (bool, error) {
	var out likeResponse
	resp, err := c.http.R().
		SetResult(&out).
		SetError(&apiError{}).
		SetPathParam("id", fmt.Sprint(id)).
		Post("/api/v1/messages/{id}/like")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, failure(resp, "could not like message")
	}
	return out.Liked, nil
}
