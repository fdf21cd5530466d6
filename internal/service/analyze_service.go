// FILE: internal/service/analyze_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/pkg/logger"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"captionchecker-be/pkg/events"
	"captionchecker-be/pkg/llm"
	pktNats "captionchecker-be/pkg/nats"

	"github.com/google/uuid"
)

// alternativesByPlan controls how many improved captions the model is
// asked to produce for each tier.
var alternativesByPlan = map[string]int{
	"free":    2,
	"starter": 2,
	"vision":  2,
	"popular": 3,
	"pro":     4,
}

type IAnalyzeService interface {
	AnalyzeCaption(ctx context.Context, userId uuid.UUID, req *dto.AnalyzeRequest) (map[string]interface{}, error)
	AnalyzeImage(ctx context.Context, userId uuid.UUID, req *dto.AnalyzeImageRequest) (map[string]interface{}, error)
}

type analyzeService struct {
	uowFactory     unitofwork.RepositoryFactory
	entitlement    IEntitlementService
	llmProvider    llm.LLMProvider
	eventPublisher *pktNats.Publisher
	visionModel    string
	timeout        time.Duration
	log            logger.ILogger
}

func NewAnalyzeService(
	uowFactory unitofwork.RepositoryFactory,
	entitlement IEntitlementService,
	llmProvider llm.LLMProvider,
	eventPublisher *pktNats.Publisher,
	visionModel string,
	timeout time.Duration,
	log logger.ILogger,
) IAnalyzeService {
	return &analyzeService{
		uowFactory:     uowFactory,
		entitlement:    entitlement,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		visionModel:    visionModel,
		timeout:        timeout,
		log:            log,
	}
}

func (s *analyzeService) AnalyzeCaption(ctx context.Context, userId uuid.UUID, req *dto.AnalyzeRequest) (map[string]interface{}, error) {
	if strings.TrimSpace(req.Caption) == "" {
		return nil, fmt.Errorf("%w: caption is required", apperr.ErrValidation)
	}

	user, err := s.currentUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	if err := s.entitlement.Authorize(ctx, userId, entity.ActionText); err != nil {
		return nil, err
	}

	prompt := buildCaptionPrompt(req.Caption, req.Vibe, alternativesFor(user.Plan))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llmProvider.Generate(callCtx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		// The paid call failed: nothing is consumed.
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	parsed, err := parseModelJSON(raw)
	if err != nil {
		return nil, err
	}

	if err := s.entitlement.Consume(ctx, userId, entity.ActionText); err != nil {
		return nil, err
	}

	s.publish(ctx, "CAPTION_ANALYZED", map[string]interface{}{
		"user_id": userId,
		"plan":    user.Plan,
	})

	return parsed, nil
}

func (s *analyzeService) AnalyzeImage(ctx context.Context, userId uuid.UUID, req *dto.AnalyzeImageRequest) (map[string]interface{}, error) {
	if strings.TrimSpace(req.ImageDataURL) == "" {
		return nil, fmt.Errorf("%w: image data is required", apperr.ErrValidation)
	}

	user, err := s.currentUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	if err := s.entitlement.Authorize(ctx, userId, entity.ActionImage); err != nil {
		return nil, err
	}

	prompt := buildImagePrompt(req.Vibe, alternativesFor(user.Plan))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llmProvider.Chat(callCtx, []llm.Message{
		{Role: "user", Content: prompt, ImageURL: req.ImageDataURL},
	}, llm.WithModel(s.visionModel))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	parsed, err := parseModelJSON(raw)
	if err != nil {
		return nil, err
	}

	if err := s.entitlement.Consume(ctx, userId, entity.ActionImage); err != nil {
		return nil, err
	}

	s.publish(ctx, "IMAGE_ANALYZED", map[string]interface{}{
		"user_id": userId,
		"plan":    user.Plan,
	})

	return parsed, nil
}

func (s *analyzeService) currentUser(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrUnauthenticated)
	}
	return user, nil
}

func alternativesFor(plan string) int {
	if n, ok := alternativesByPlan[plan]; ok {
		return n
	}
	return 2
}

// parseModelJSON strips optional markdown code fences and decodes the
// model output. A decode failure surfaces the raw text for diagnostics.
func parseModelJSON(raw string) (map[string]interface{}, error) {
	jsonString := strings.TrimSpace(raw)
	jsonString = strings.TrimPrefix(jsonString, "```json")
	jsonString = strings.TrimPrefix(jsonString, "```")
	jsonString = strings.TrimSuffix(jsonString, "```")
	jsonString = strings.TrimSpace(jsonString)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonString), &parsed); err != nil {
		return nil, &apperr.UpstreamFormatError{Raw: jsonString}
	}
	return parsed, nil
}

func (s *analyzeService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("analyze", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func buildCaptionPrompt(caption, vibe string, alternatives int) string {
	return fmt.Sprintf(`You are a top-tier viral content strategist for short-form platforms like YouTube Shorts, Instagram Reels, and TikTok.

Your job is to analyze and improve the following caption to make it more viral, engaging, and platform-optimized:

---

### User-defined Vibe:
"%s"

**Try to align the tone and improvements with this vibe where possible.**

---

"%s"

---

### Analyze this caption on 7 key performance factors:

Give scores from **1 to 10**, or **Yes/No** for CTA. Keep each score **strict and realistic**, as if evaluating for a viral creator campaign.

**Scoring Criteria:**
1. **Catchiness** - Does it immediately grab attention or create curiosity?
2. **Grammar Check** - Are there any spelling, grammar, or punctuation issues?
3. **Caption Clarity** - Is the message easy to understand on a first read?
4. **Hashtag Strategy** - Are the hashtags relevant, niche-targeted, and optimized for discovery?
5. **Hook Strength** - Are the first 5-10 words scroll-stopping or pattern-breaking?
6. **Call-to-Action (CTA)** - Is there an effective CTA like "Save this", "Watch till the end", "Comment below", etc.?
7. **Tone** - Identify the tone: e.g. Informative, Entertaining, Emotional, Sarcastic, Motivational, Dramatic, Urgent, etc.

---

### Then do the following:

**1. Suggest ways to improve the original caption**, including:
- Hook changes
- Emoji placement
- CTA ideas
- Hashtag improvements

**2. Generate %d highly improved, viral-style caption alternatives** that:
- Use **strong hooks** in the first 5-10 words
- Include **at least 4 relevant emojis** (naturally placed, not forced)
- Have a clear **CTA** (if it fits context)
- Use **at least 4 niche-specific and viral hashtags**
- Are trend-aware, emotionally punchy, and easy to scan in 1-2 seconds

---

### Output your answer in this **JSON format**:

{
  "original_analysis": {
    "catchiness": <score>,
    "grammar": <score>,
    "clarity": <score>,
    "hashtag_usage": <score>,
    "hook_strength": <score>,
    "cta_present": "Yes" or "No",
    "tone": "<detected tone>",
    "suggestions": [
      "<suggestion 1>",
      "<suggestion 2>",
      ...
    ]
  },
  "improved_captions": [
    {
      "text": "<improved caption>",
      "scores": {
        "catchiness": <score>,
        "grammar": <score>,
        "clarity": <score>,
        "hashtag_usage": <score>,
        "hook_strength": <score>,
        "cta_present": "Yes" or "No",
        "tone": "<new tone>"
      }
    },
    ...
  ]
}
`, vibe, caption, alternatives)
}

func buildImagePrompt(vibe string, alternatives int) string {
	return fmt.Sprintf(`You are a viral short-form content strategist specialized in platforms like YouTube Shorts, Instagram Reels, and TikTok.

You are given an image (attached separately) and a user-defined vibe. Your task is to analyze the visual content of the image and generate highly engaging, viral-ready caption options tailored for short-form social media.

---

### User-defined Vibe:
"%s"

Match the tone and style of your captions to this vibe as closely as possible.

---

### Your Objective:

Generate %d **improved, scroll-stopping, platform-optimized captions** that are:

- **Hook-first**: The first 5-10 words must be attention-grabbing.
- **Emoji-rich**: Use **at least 4 relevant emojis**, placed naturally.
- **Hashtag-smart**: Include **at least 4 niche-specific + viral hashtags**.
- **CTA-aware**: If the context allows, include a subtle but effective **call-to-action** like "Tag someone", "Save this", "Drop a comment if you agree", etc.
- **Trend-aware**: Use phrases, vibes, or structures that are currently viral or trending.

---

### Output Format (JSON only, no text outside this):

{
  "improved_captions": [
    {
      "text": "<viral caption 1>",
      "scores": {
        "catchiness": <score>,
        "grammar": <score>,
        "clarity": <score>,
        "hashtag_usage": <score>,
        "hook_strength": <score>,
        "cta_present": "Yes" or "No",
        "tone": "<detected tone>"
      }
    },
    ...
  ]
}

ONLY return this JSON. Do NOT include explanation, caption analysis, or commentary. Focus purely on creating viral-style captions derived directly from the image content.`, vibe, alternatives)
}
