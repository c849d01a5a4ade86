package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemoteOptions configure a RemoteBackend.
type RemoteOptions struct {
	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration

	// RunID is sent as X-Run-ID with every request.
	RunID string

	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client *http.Client
}

// RemoteBackend forwards images to an HTTP inference service.
//
// The service exposes two endpoints below its base URL:
//
//	GET  /health  -> 200 when the model is loaded
//	POST /detect  -> {"detections":[{"label":"plate","confidence":0.9,"box":[x1,y1,x2,y2]}]}
//
// /detect receives a multipart form with the PNG encoded image in the
// "image" part and the model parameters as plain fields: weights (one per
// location), device, imgsz ("height,width"), conf_thres, iou_thres and
// max_det.
type RemoteBackend struct {
	endpoint string
	params   Params
	runID    string
	client   *http.Client
}

// NewRemoteBackend connects to the inference service at endpoint and checks
// that it reports healthy. Any failure wraps ErrModelLoad.
func NewRemoteBackend(ctx context.Context, endpoint string, p Params, opts RemoteOptions) (*RemoteBackend, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid inference endpoint %q", ErrModelLoad, endpoint)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	b := &RemoteBackend{
		endpoint: strings.TrimRight(endpoint, "/"),
		params:   p,
		runID:    opts.RunID,
		client:   client,
	}

	if err := b.Health(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, strings.Join(p.Weights, ","), err)
	}
	return b, nil
}

// Endpoint returns the base URL of the service.
func (b *RemoteBackend) Endpoint() string {
	return b.endpoint
}

// Health checks that the service is reachable and has its model loaded.
func (b *RemoteBackend) Health(ctx context.Context) error {
	q := url.Values{}
	for _, w := range b.params.Weights {
		q.Add("weights", w)
	}
	q.Set("device", b.params.Device)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"/health?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// Infer implements Backend.
func (b *RemoteBackend) Infer(ctx context.Context, img image.Image) ([]Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	fields := [][2]string{
		{"device", b.params.Device},
		{"imgsz", fmt.Sprintf("%d,%d", b.params.Height, b.params.Width)},
		{"conf_thres", strconv.FormatFloat(b.params.ConfThres, 'f', -1, 64)},
		{"iou_thres", strconv.FormatFloat(b.params.IoUThres, 'f', -1, 64)},
		{"max_det", strconv.Itoa(b.params.MaxDet)},
	}
	for _, w := range b.params.Weights {
		fields = append(fields, [2]string{"weights", w})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/detect", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Detections, nil
}

// Close implements Backend.
func (b *RemoteBackend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *RemoteBackend) setHeaders(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if b.runID != "" {
		req.Header.Set("X-Run-ID", b.runID)
	}
}

var _ Backend = (*RemoteBackend)(nil)
