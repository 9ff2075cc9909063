// Package navclient talks to the navigation bridge over HTTP: it
// implements the collaborator command surface and polls the bridge's
// status endpoints into the robot state holder.
package navclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/navbench/jackalrl/pkg/nav"
)

// Client is an HTTP implementation of nav.Collaborator against the
// navigation bridge.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}
	return nil
}

type poseBody struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

type modelStateBody struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

type scanBody struct {
	Ranges []float64 `json:"ranges"`
}

type costmapBody struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Data   []float64 `json:"data"`
}

type paramBody struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (c *Client) ModelState(ctx context.Context) (nav.ModelState, error) {
	var body modelStateBody
	if err := c.getJSON(ctx, "/api/model_state", &body); err != nil {
		return nav.ModelState{}, err
	}
	return nav.ModelState{X: body.X, Y: body.Y, Z: body.Z, Yaw: body.Yaw}, nil
}

func (c *Client) LaserScan(ctx context.Context) ([]float64, error) {
	var body scanBody
	if err := c.getJSON(ctx, "/api/scan", &body); err != nil {
		return nil, err
	}
	return body.Ranges, nil
}

func (c *Client) Costmap(ctx context.Context) (*nav.Costmap, error) {
	var body costmapBody
	if err := c.getJSON(ctx, "/api/costmap", &body); err != nil {
		return nil, err
	}
	if len(body.Data) != body.Width*body.Height {
		return nil, fmt.Errorf("costmap: %dx%d grid with %d cells", body.Width, body.Height, len(body.Data))
	}
	return &nav.Costmap{Width: body.Width, Height: body.Height, Data: body.Data}, nil
}

func (c *Client) SetGoal(ctx context.Context, x, y, yaw float64) error {
	return c.postJSON(ctx, "/api/goal", poseBody{X: x, Y: y, Yaw: yaw})
}

func (c *Client) ClearCostmaps(ctx context.Context) error {
	return c.postJSON(ctx, "/api/clear_costmaps", nil)
}

func (c *Client) ResetPose(ctx context.Context) error {
	return c.postJSON(ctx, "/api/reset_pose", nil)
}

func (c *Client) ResetModel(ctx context.Context, x, y, yaw float64) error {
	return c.postJSON(ctx, "/api/model_state", poseBody{X: x, Y: y, Yaw: yaw})
}

func (c *Client) SetParam(ctx context.Context, name string, value float64) error {
	return c.postJSON(ctx, "/api/param", paramBody{Name: name, Value: value})
}

func (c *Client) Pause(ctx context.Context) error {
	return c.postJSON(ctx, "/api/pause", nil)
}

func (c *Client) Unpause(ctx context.Context) error {
	return c.postJSON(ctx, "/api/unpause", nil)
}
