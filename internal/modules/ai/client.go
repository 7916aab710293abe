package ai

import (
	"context"
	"strings"
	"time"

	"github.com/velasier/paperbase/internal/config"
	"github.com/velasier/paperbase/internal/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	structuredMaxTokens = 1024
	answerMaxTokens     = 1024
	callTimeout         = 90 * time.Second
)

// Client wraps the language-model provider. It is constructed once at
// process start from config; per-user API keys override the configured key
// on a per-call basis.
type Client struct {
	cfg    config.AIConfig
	logger *zap.Logger
}

// NewClient creates an analysis client.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger.Named("ai")}
}

func (c *Client) resolveKey(override string) string {
	if key := strings.TrimSpace(override); key != "" {
		return key
	}
	return c.cfg.APIKey
}

// StructuredAnalyze requests a JSON-structured analysis of an abstract.
// Any transport, authentication, or parse failure returns nil; the caller
// skips persisting that analysis kind. The payload is stored as-is without
// schema validation, so a parse failure must never leak a partial object.
func (c *Client) StructuredAnalyze(ctx context.Context, kind models.AnalysisKind, abstract, apiKeyOverride string) datatypes.JSON {
	model, err := buildLanguageModel(c.cfg, c.resolveKey(apiKeyOverride))
	if err != nil {
		c.logger.Warn("analysis skipped", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := generateText(ctx, model, jsonSystemPrompt, promptForKind(kind)+abstract, structuredMaxTokens)
	if err != nil {
		c.logger.Warn("analysis call failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}

	obj, err := extractJSONObject(raw)
	if err != nil {
		c.logger.Warn("analysis returned unparsable content", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}
	return datatypes.JSON(obj)
}

// AnswerWithContext answers a free-text question grounded in contextText.
// It never fails: any error yields a fixed apology string.
func (c *Client) AnswerWithContext(ctx context.Context, question, contextText, apiKeyOverride string) string {
	model, err := buildLanguageModel(c.cfg, c.resolveKey(apiKeyOverride))
	if err != nil {
		c.logger.Warn("qna call skipped", zap.Error(err))
		return apologyAnswer
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	answer, err := generateText(ctx, model, "", buildQnaPrompt(contextText, question), answerMaxTokens)
	if err != nil {
		c.logger.Warn("qna call failed", zap.Error(err))
		return apologyAnswer
	}
	return strings.TrimSpace(answer)
}
