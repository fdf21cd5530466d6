// FILE: internal/service/analyze_service_test.go
package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
	lastImage  string
	calls      int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
		f.lastImage = history[len(history)-1].ImageURL
	}
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.response, f.err
}

const modelAnswer = `{"original_analysis": {"catchiness": 7}, "improved_captions": []}`

func newAnalyzeFixture(user *entity.User, provider llm.LLMProvider) (IAnalyzeService, *fakeUserRepo) {
	repo := newFakeUserRepo(user)
	factory := newFakeFactory(repo)
	return NewAnalyzeService(
		factory,
		NewEntitlementService(factory),
		provider,
		nil,
		"gpt-4o",
		time.Second,
		nopLogger{},
	), repo
}

func verifiedUser() *entity.User {
	return &entity.User{
		Id:               uuid.New(),
		Email:            "creator@example.com",
		Verified:         true,
		Plan:             entity.PlanFree,
		MaxRequests:      3,
		MaxImageRequests: 1,
	}
}

func TestAnalyzeCaption(t *testing.T) {
	user := verifiedUser()
	provider := &fakeLLM{response: modelAnswer}
	svc, repo := newAnalyzeFixture(user, provider)

	res, err := svc.AnalyzeCaption(context.Background(), user.Id, &dto.AnalyzeRequest{
		Caption: "my new video is out",
		Vibe:    "funny",
	})
	require.NoError(t, err)

	assert.Contains(t, res, "original_analysis")
	assert.Contains(t, provider.lastPrompt, "my new video is out")
	assert.Contains(t, provider.lastPrompt, "funny")
	assert.Equal(t, 1, repo.get(user.Id).Requests)
}

func TestAnalyzeCaptionStripsMarkdownFences(t *testing.T) {
	user := verifiedUser()
	provider := &fakeLLM{response: "```json\n" + modelAnswer + "\n```"}
	svc, _ := newAnalyzeFixture(user, provider)

	res, err := svc.AnalyzeCaption(context.Background(), user.Id, &dto.AnalyzeRequest{Caption: "hello"})
	require.NoError(t, err)
	assert.Contains(t, res, "improved_captions")
}

func TestAnalyzeCaptionEmptyInput(t *testing.T) {
	user := verifiedUser()
	provider := &fakeLLM{response: modelAnswer}
	svc, repo := newAnalyzeFixture(user, provider)

	_, err := svc.AnalyzeCaption(context.Background(), user.Id, &dto.AnalyzeRequest{Caption: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 0, repo.get(user.Id).Requests)
}

func TestAnalyzeCaptionUpstreamFailureDoesNotConsume(t *testing.T) {
	user := verifiedUser()
	provider := &fakeLLM{err: errors.New("model overloaded")}
	svc, repo := newAnalyzeFixture(user, provider)

	_, err := svc.AnalyzeCaption(context.Background(), user.Id, &dto.AnalyzeRequest{Caption: "hello"})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, 0, repo.get(user.Id).Requests)
}

func TestAnalyzeCaptionUnparsableAnswerDoesNotConsume(t *testing.T) {
	user := verifiedUser()
	provider := &fakeLLM{response: "Sure! Here's my analysis: it is great."}
	svc, repo := newAnalyzeFixture(user, provider)

	_, err := svc.AnalyzeCaption(context.Background(), user.Id, &dto.AnalyzeRequest{Caption: "hello"})

	var formatErr *apperr.UpstreamFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Raw, "Sure!")
	assert.Equal(t, 0, repo.get(user.Id).Requests)
}

func TestAnalyzeImage(t *testing.T) {
	user := verifiedUser()
	provider := &fakeLLM{response: `{"improved_captions": []}`}
	svc, repo := newAnalyzeFixture(user, provider)

	_, err := svc.AnalyzeImage(context.Background(), user.Id, &dto.AnalyzeImageRequest{
		ImageDataURL: "data:image/png;base64,AAAA",
		Vibe:         "aesthetic",
	})
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,AAAA", provider.lastImage)
	got := repo.get(user.Id)
	assert.Equal(t, 1, got.ImageRequests)
	assert.Equal(t, 0, got.Requests)
}

// An unverified account gets exactly one analysis of any kind, then is
// blocked until the email is confirmed.
func TestUnverifiedUserLifecycle(t *testing.T) {
	token := "pending-token"
	user := &entity.User{
		Id:               uuid.New(),
		Email:            "fresh@example.com",
		Verified:         false,
		VerifyEmailToken: &token,
		Plan:             entity.PlanFree,
		MaxRequests:      3,
		MaxImageRequests: 1,
	}
	provider := &fakeLLM{response: modelAnswer}
	repo := newFakeUserRepo(user)
	factory := newFakeFactory(repo)
	svc := NewAnalyzeService(factory, NewEntitlementService(factory), provider, nil, "gpt-4o", time.Second, nopLogger{})
	ctx := context.Background()

	_, err := svc.AnalyzeCaption(ctx, user.Id, &dto.AnalyzeRequest{Caption: "first"})
	require.NoError(t, err)

	_, err = svc.AnalyzeCaption(ctx, user.Id, &dto.AnalyzeRequest{Caption: "second"})
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "verify your email")

	// The image path is capped by the same counter.
	_, err = svc.AnalyzeImage(ctx, user.Id, &dto.AnalyzeImageRequest{ImageDataURL: "data:image/png;base64,AAAA"})
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)

	require.NoError(t, repo.MarkVerified(ctx, user.Id, token))

	_, err = svc.AnalyzeCaption(ctx, user.Id, &dto.AnalyzeRequest{Caption: "second try"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.get(user.Id).Requests)
}

func TestAlternativeCountFollowsPlan(t *testing.T) {
	tests := []struct {
		plan string
		want string
	}{
		{"free", "Generate 2"},
		{"popular", "Generate 3"},
		{"pro", "Generate 4"},
		{"unknown-tier", "Generate 2"},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			user := verifiedUser()
			user.Plan = tt.plan
			provider := &fakeLLM{response: modelAnswer}
			svc, _ := newAnalyzeFixture(user, provider)

			_, err := svc.AnalyzeCaption(context.Background(), user.Id, &dto.AnalyzeRequest{Caption: "hello"})
			require.NoError(t, err)
			assert.True(t, strings.Contains(provider.lastPrompt, tt.want),
				"prompt for plan %s should ask for the right number of alternatives", tt.plan)
		})
	}
}
