// Package narrative generates free text through a go-agents chat agent.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/one2ten/stetho-agent/pkg/retry"
)

// ErrGenerationFailed is returned when text generation fails after all retries.
var ErrGenerationFailed = errors.New("narrative generation failed")

var errEmptyReply = errors.New("empty reply")

const (
	probeTimeout = 15 * time.Second
	probePrompt  = "Reply with the single word OK."
)

// ChatFunc sends one prompt to the model and returns the reply text.
type ChatFunc func(ctx context.Context, prompt string) (string, error)

// Client generates narratives with retries and a per-attempt timeout.
type Client struct {
	chat         ChatFunc
	model        string
	timeout      time.Duration
	keepThinking bool
	policy       retry.Policy
	logger       *slog.Logger
}

// New creates a client that builds an agent from agentCfg for every call.
func New(agentCfg *gaconfig.AgentConfig, cfg *Config, logger *slog.Logger) *Client {
	var model string
	if agentCfg.Model != nil {
		model = agentCfg.Model.Name
	}
	return newClient(agentChat(agentCfg), model, cfg, logger)
}

func newClient(chat ChatFunc, model string, cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		chat:         chat,
		model:        model,
		timeout:      cfg.TimeoutDuration(),
		keepThinking: cfg.KeepThinking,
		policy:       retry.Exponential(cfg.MaxRetries),
		logger:       logger.With("system", "narrative", "model", model),
	}
}

func agentChat(cfg *gaconfig.AgentConfig) ChatFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		a, err := agent.New(cfg)
		if err != nil {
			return "", retry.Permanent(fmt.Errorf("create agent: %w", err))
		}

		resp, err := a.Chat(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("chat call: %w", err)
		}
		return resp.Content(), nil
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate returns the model's reply to prompt, with system placed ahead of
// it when set. Failed and empty replies are retried with backoff; the final
// failure wraps ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	composed := compose(prompt, system)

	var text string
	err := c.policy.Do(ctx, func(attempt int) error {
		c.logger.DebugContext(ctx, "generation request", "attempt", attempt)

		reply, err := c.call(ctx, composed)
		if err == nil {
			text = c.clean(reply)
			if text == "" {
				err = errEmptyReply
			}
		}
		if err != nil {
			c.logger.WarnContext(ctx, "generation attempt failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	c.logger.InfoContext(ctx, "generation complete", "chars", len(text))
	return text, nil
}

// Available reports whether the agent answers a short prompt.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := c.chat(ctx, probePrompt); err != nil {
		c.logger.WarnContext(ctx, "narrative agent unavailable", "error", err)
		return false
	}
	return true
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.chat(ctx, prompt)
}

// compose places the system instructions before the task prompt, the same
// layout the prompt overrides are written against.
func compose(prompt, system string) string {
	if strings.TrimSpace(system) == "" {
		return prompt
	}
	return system + "\n\n" + prompt
}

// clean strips a leading <think>...</think> reasoning block unless configured to keep it.
func (c *Client) clean(content string) string {
	if c.keepThinking {
		return strings.TrimSpace(content)
	}

	start := strings.Index(content, "<think>")
	end := strings.Index(content, "</think>")
	if start == -1 || end == -1 || end < start {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(content[:start] + content[end+len("</think>"):])
}
