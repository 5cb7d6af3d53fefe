package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	viaFlag          = "--via"
	apiVia           = "api"
	getModelNameFlag = "--get-model-name"
	listModelsFlag   = "--list-models"
	loadModelFlag    = "--load-model"
	captureFileFlag  = "--capture-file"
	jsonFlag         = "--json"

	defaultFreeMemory = "0"
)

// Client maps each external tool's argument contract onto a typed call.
type Client struct {
	runner       Runner
	via          string
	modelType    string
	probeTimeout time.Duration
	log          zerolog.Logger
}

type ClientConfig struct {
	Via          string
	ModelType    string
	ProbeTimeout time.Duration
}

func NewClient(runner Runner, cfg ClientConfig, log zerolog.Logger) *Client {
	return &Client{
		runner:       runner,
		via:          cfg.Via,
		modelType:    cfg.ModelType,
		probeTimeout: cfg.ProbeTimeout,
		log:          log,
	}
}

func (c *Client) Summarize(ctx context.Context, url string, prompt string) (string, error) {
	return c.runner.Run(ctx, Summarizer, Invocation{Args: []string{url, prompt}})
}

// Ask feeds the context document on stdin.
func (c *Client) Ask(ctx context.Context, question string, document string) (string, error) {
	return c.runner.Run(ctx, Asker, Invocation{Args: []string{question}, Stdin: document})
}

// Bookmark is the bookmarker's decoded JSON document. Keywords stays raw
// because the tool emits either a list or a single string.
type Bookmark struct {
	Link        string          `json:"link"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Keywords    json.RawMessage `json:"keywords"`
}

type BookmarkResult struct {
	Bookmark Bookmark
	Raw      string
	FullText string
}

// Bookmark runs the bookmarker with a private capture file for the extracted
// page text. The capture file is removed on every return path.
func (c *Client) Bookmark(ctx context.Context, url string) (BookmarkResult, error) {
	capture, err := os.CreateTemp("", "scuttle-capture-*.txt")
	if err != nil {
		return BookmarkResult{}, err
	}
	capturePath := capture.Name()
	defer os.Remove(capturePath)
	if err := capture.Close(); err != nil {
		return BookmarkResult{}, err
	}

	output, runErr := c.runner.Run(ctx, Bookmarker, Invocation{
		Args: []string{captureFileFlag, capturePath, jsonFlag, url},
	})
	fullText := readCapture(capturePath)
	if runErr != nil {
		return BookmarkResult{FullText: fullText}, runErr
	}

	result := BookmarkResult{Raw: output, FullText: fullText}
	if err := json.Unmarshal([]byte(output), &result.Bookmark); err != nil {
		return result, &MalformedOutputError{Tool: Bookmarker, Raw: output, FullText: fullText, Err: err}
	}
	if strings.TrimSpace(result.Bookmark.Link) == "" {
		return result, &MalformedOutputError{Tool: Bookmarker, Raw: output, FullText: fullText, Err: errors.New("missing link")}
	}
	return result, nil
}

func readCapture(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// ListModels returns the model names known to the api backend, one per line.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	output, err := c.runner.Run(ctx, ModelLister, Invocation{Args: []string{viaFlag, apiVia, listModelsFlag}})
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

func (c *Client) LoadModel(ctx context.Context, name string) (string, error) {
	return c.runner.Run(ctx, ModelLoader, Invocation{Args: []string{viaFlag, apiVia, loadModelFlag, name}})
}

// ActiveModelName never fails; a probe error or empty answer yields "<model_type>?".
func (c *Client) ActiveModelName(ctx context.Context) string {
	ctx, cancel := c.probeContext(ctx)
	defer cancel()
	output, err := c.runner.Run(ctx, ModelName, Invocation{Args: []string{viaFlag, c.via, getModelNameFlag}})
	name := strings.TrimSpace(output)
	if err != nil || name == "" {
		return c.modelType + "?"
	}
	return name
}

// FreeGPUMemory never fails; a probe error or empty answer yields "0".
func (c *Client) FreeGPUMemory(ctx context.Context) string {
	ctx, cancel := c.probeContext(ctx)
	defer cancel()
	output, err := c.runner.Run(ctx, GPUProbe, Invocation{})
	free := strings.TrimSpace(output)
	if err != nil || free == "" {
		return defaultFreeMemory
	}
	return free
}

func (c *Client) Status(ctx context.Context) (string, error) {
	return c.runner.Run(ctx, Status, Invocation{})
}

func (c *Client) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.probeTimeout > 0 {
		return context.WithTimeout(ctx, c.probeTimeout)
	}
	return context.WithCancel(ctx)
}

func splitLines(output string) []string {
	lines := strings.Split(output, "\n")
	results := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		results = append(results, trimmed)
	}
	return results
}
