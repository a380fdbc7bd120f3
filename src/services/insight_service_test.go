package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/shrinklens/backend/src/database"
	"github.com/username/shrinklens/backend/src/llm"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/processors"
)

type fakeProvider struct {
	apiKey     string
	lastPrompt string
	quickErr   error
	deepErr    error
	reply      string
}

func (f *fakeProvider) QuickQuery(ctx context.Context, systemPrompt, prompt string, onDelta func(string)) error {
	f.lastPrompt = prompt
	if f.quickErr != nil {
		return f.quickErr
	}
	for _, chunk := range []string{"part one ", "part two"} {
		onDelta(chunk)
	}
	return nil
}

func (f *fakeProvider) DeepDive(ctx context.Context, systemPrompt, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.deepErr != nil {
		return "", f.deepErr
	}
	return f.reply, nil
}

func newInsightFixture(t *testing.T, apiKey string) (*insightServiceImpl, *fakeProvider) {
	t.Helper()
	logger.InitLogger("error")
	database.InitDB(filepath.Join(t.TempDir(), "insight_test.db"))
	variance := NewVarianceService(processors.NewVarianceProcessor(5), cache.New(time.Minute, time.Minute))

	fake := &fakeProvider{reply: "all quiet"}
	s := &insightServiceImpl{
		varianceService: variance,
		buildProvider: func(key string) llm.Provider {
			fake.apiKey = key
			return fake
		},
	}
	if apiKey != "" {
		s.provider = s.buildProvider(apiKey)
	}
	return s, fake
}

func TestInsightStatusTransitions(t *testing.T) {
	s, _ := newInsightFixture(t, "")
	if got := s.Status(); got != InsightOffline {
		t.Errorf("status without key = %q, want offline", got)
	}

	s.Reauthorize("sk-test")
	if got := s.Status(); got != InsightReady {
		t.Errorf("status after reauthorize = %q, want ready", got)
	}

	s.Reauthorize("")
	if got := s.Status(); got != InsightOffline {
		t.Errorf("status after clearing key = %q, want offline", got)
	}
}

func TestQuickQueryStreamsDeltas(t *testing.T) {
	s, fake := newInsightFixture(t, "sk-test")

	var b strings.Builder
	err := s.QuickQuery(context.Background(), models.DefaultFilter(), "what stands out?", func(d string) {
		b.WriteString(d)
	})
	if err != nil {
		t.Fatalf("QuickQuery failed: %v", err)
	}
	if b.String() != "part one part two" {
		t.Errorf("streamed text = %q", b.String())
	}
	if !strings.Contains(fake.lastPrompt, "Question: what stands out?") {
		t.Errorf("prompt missing question: %q", fake.lastPrompt)
	}
	if !strings.Contains(fake.lastPrompt, "Summary:") {
		t.Errorf("prompt missing summary block: %q", fake.lastPrompt)
	}
}

func TestQuickQueryOffline(t *testing.T) {
	s, _ := newInsightFixture(t, "")
	err := s.QuickQuery(context.Background(), models.DefaultFilter(), "anything", func(string) {})
	if !errors.Is(err, ErrInsightOffline) {
		t.Errorf("QuickQuery offline = %v, want ErrInsightOffline", err)
	}
}

func TestUnauthorizedFlipsToReauth(t *testing.T) {
	s, fake := newInsightFixture(t, "sk-stale")
	fake.deepErr = llm.ErrUnauthorized

	_, err := s.DeepDive(context.Background(), models.DefaultFilter())
	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("DeepDive = %v, want ErrUnauthorized", err)
	}
	if got := s.Status(); got != InsightReauth {
		t.Errorf("status after 401 = %q, want reauth_required", got)
	}

	// A fresh key clears the reauth flag.
	fake.deepErr = nil
	s.Reauthorize("sk-fresh")
	if got := s.Status(); got != InsightReady {
		t.Errorf("status after fresh key = %q, want ready", got)
	}
	if fake.apiKey != "sk-fresh" {
		t.Errorf("provider rebuilt with key %q, want sk-fresh", fake.apiKey)
	}

	text, err := s.DeepDive(context.Background(), models.DefaultFilter())
	if err != nil {
		t.Fatalf("DeepDive after reauth failed: %v", err)
	}
	if text != "all quiet" {
		t.Errorf("DeepDive reply = %q", text)
	}
}

func TestDeepDivePromptIncludesDeepDiveQuestion(t *testing.T) {
	s, fake := newInsightFixture(t, "sk-test")

	if _, err := s.DeepDive(context.Background(), models.DefaultFilter()); err != nil {
		t.Fatalf("DeepDive failed: %v", err)
	}
	if !strings.Contains(fake.lastPrompt, "deep-dive analysis") {
		t.Errorf("prompt missing deep dive question: %q", fake.lastPrompt)
	}
}
