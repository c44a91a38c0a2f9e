package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultLeonardoBaseURL = "https://cloud.leonardo.ai/api/rest/v1"

// LeonardoClient implements JobService against the Leonardo generations API.
type LeonardoClient struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// LeonardoOption configures a LeonardoClient.
type LeonardoOption func(*LeonardoClient)

// WithLeonardoBaseURL overrides the API root.
func WithLeonardoBaseURL(u string) LeonardoOption {
	return func(c *LeonardoClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLeonardoHTTPClient sets the HTTP client.
func WithLeonardoHTTPClient(hc *http.Client) LeonardoOption {
	return func(c *LeonardoClient) { c.hc = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) LeonardoOption {
	return func(c *LeonardoClient) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewLeonardoClient creates a client. Default rate is 2 req/s.
func NewLeonardoClient(apiKey string, opts ...LeonardoOption) *LeonardoClient {
	c := &LeonardoClient{
		apiKey:  apiKey,
		baseURL: defaultLeonardoBaseURL,
		hc:      &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type generationRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	NumImages      int     `json:"num_images"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Scheduler      string  `json:"scheduler"`
	PresetStyle    string  `json:"presetStyle"`
	Public         bool    `json:"public"`
	PromptMagic    bool    `json:"promptMagic"`
	InitImageB64   string  `json:"init_image_b64,omitempty"`
	InitStrength   float64 `json:"init_strength,omitempty"`
}

type generationResponse struct {
	SDGenerationJob struct {
		GenerationID string `json:"generationId"`
	} `json:"sdGenerationJob"`
}

type generationStatusResponse struct {
	GenerationsByPK struct {
		Status          string `json:"status"`
		GeneratedImages []struct {
			URL string `json:"url"`
		} `json:"generated_images"`
	} `json:"generations_by_pk"`
}

// SubmitJob starts a generation and returns its id.
func (c *LeonardoClient) SubmitJob(ctx context.Context, req JobRequest) (string, error) {
	body := generationRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Height:         req.Height,
		Width:          req.Width,
		NumImages:      1,
		GuidanceScale:  req.GuidanceScale,
		Scheduler:      "DPM_SOLVER",
		PresetStyle:    req.PresetStyle,
		PromptMagic:    true,
	}
	if len(req.InitImage) > 0 {
		body.InitImageB64 = base64.StdEncoding.EncodeToString(req.InitImage)
		body.InitStrength = req.InitStrength
	}

	var out generationResponse
	if err := c.do(ctx, http.MethodPost, "/generations", body, &out); err != nil {
		return "", fmt.Errorf("leonardo submit: %w", err)
	}
	if out.SDGenerationJob.GenerationID == "" {
		return "", fmt.Errorf("leonardo submit: empty generation id")
	}
	return out.SDGenerationJob.GenerationID, nil
}

// PollJob reads the current state of a generation.
func (c *LeonardoClient) PollJob(ctx context.Context, jobID string) (JobResult, error) {
	var out generationStatusResponse
	if err := c.do(ctx, http.MethodGet, "/generations/"+jobID, nil, &out); err != nil {
		return JobResult{}, fmt.Errorf("leonardo poll: %w", err)
	}
	g := out.GenerationsByPK
	switch strings.ToUpper(g.Status) {
	case "COMPLETE":
		res := JobResult{Status: JobComplete}
		if len(g.GeneratedImages) > 0 {
			res.OutputURL = g.GeneratedImages[0].URL
		}
		return res, nil
	case "FAILED":
		return JobResult{Status: JobFailed}, nil
	default:
		return JobResult{Status: JobPending}, nil
	}
}

// wait blocks until the limiter admits a request and any 429 backoff has passed.
func (c *LeonardoClient) wait(ctx context.Context) error {
	c.mu.Lock()
	until := time.Until(c.retryAt)
	c.mu.Unlock()
	if until > 0 {
		t := time.NewTimer(until)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *LeonardoClient) recordRateLimit(retryAfter string) {
	secs, err := strconv.Atoi(retryAfter)
	if err != nil || secs <= 0 {
		secs = 5
	}
	c.mu.Lock()
	c.retryAt = time.Now().Add(time.Duration(secs) * time.Second)
	c.mu.Unlock()
}

func (c *LeonardoClient) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.recordRateLimit(resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
