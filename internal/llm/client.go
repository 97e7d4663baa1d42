package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/metrics"
	"github.com/clothify/backend/pkg/circuitbreaker"
	"github.com/clothify/backend/pkg/logger"
	"github.com/clothify/backend/pkg/retry"
)

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	timeout := time.Duration(timeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	var result *CompletionResponse

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			logger.Debug("LLM completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			result = &CompletionResponse{
				Content: resp.Choices[0].Message.Content,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(result.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(result.Usage.CompletionTokens))

	return result, nil
}

// GenerateReply produces the user-facing answer for a search turn. The
// ranked product summaries ride along as context; the model must only
// recommend from them.
func (c *Client) GenerateReply(ctx context.Context, message, productContext, emotionalLabel string) (string, error) {
	systemPrompt := `Bạn là trợ lý thời trang của Clothify. Trả lời thân thiện bằng tiếng Việt.

Quy tắc:
1. Chỉ gợi ý sản phẩm có trong danh sách được cung cấp
2. Nêu lý do gợi ý ngắn gọn cho từng sản phẩm
3. Nếu danh sách trống, xin lỗi và hỏi thêm thông tin
4. Không bịa giá, màu hay size`

	userPrompt := fmt.Sprintf(`Khách hàng nhắn: %s
Tâm trạng ước lượng: %s

Sản phẩm gợi ý:
%s

Trả lời khách hàng.`, message, emotionalLabel, productContext)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	logger.Info("Reply generated",
		zap.String("message", message),
		zap.Int("reply_length", len(resp.Content)),
	)

	return resp.Content, nil
}

// StyleAdvice answers outfit questions, with complementary products from the
// style graph as grounding.
func (c *Client) StyleAdvice(ctx context.Context, message, complementContext string) (string, error) {
	systemPrompt := `Bạn là stylist của Clothify. Tư vấn phối đồ bằng tiếng Việt, ngắn gọn và cụ thể.
Nếu có danh sách sản phẩm phối kèm, hãy nhắc đến chúng.`

	userPrompt := fmt.Sprintf(`Câu hỏi: %s

Sản phẩm phối kèm có sẵn:
%s`, message, complementContext)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.7,
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate style advice: %w", err)
	}

	return resp.Content, nil
}

// CompareProducts answers comparison questions over the supplied products.
func (c *Client) CompareProducts(ctx context.Context, message, productContext string) (string, error) {
	systemPrompt := `Bạn là trợ lý thời trang của Clothify. So sánh các sản phẩm được cung cấp theo giá, chất liệu, phong cách. Trả lời bằng tiếng Việt.`

	userPrompt := fmt.Sprintf(`Yêu cầu so sánh: %s

Sản phẩm:
%s`, message, productContext)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})

	if err != nil {
		return "", fmt.Errorf("failed to compare products: %w", err)
	}

	return resp.Content, nil
}
