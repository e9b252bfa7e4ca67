package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
	lastSeen string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.lastSeen = prompt
	return g.response, g.err
}

func newInsightFixture(t *testing.T, gen *stubGenerator) (*InsightService, *MockSheetRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sheetRepo := new(MockSheetRepository)
	return NewInsightService(sheetRepo, gen, rdb, 10*time.Minute), sheetRepo
}

func TestInsightsMissThenHit(t *testing.T) {
	gen := &stubGenerator{response: "revenue is trending up"}
	svc, sheetRepo := newInsightFixture(t, gen)

	sheetRepo.On("FindByID", mock.Anything, "s1").Return(&model.Sheet{
		ID:     "s1",
		UserID: plainUser.ID,
		Rows:   []byte(`[{"Region":"North","Revenue":"1200"}]`),
	}, nil)

	req := InsightRequest{SheetID: "s1", Prompt: "summarise revenue"}

	first, err := svc.Insights(context.Background(), plainUser, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "revenue is trending up", first.Insights)
	assert.Contains(t, gen.lastSeen, `"Region":"North"`)
	assert.Contains(t, gen.lastSeen, "summarise revenue")

	second, err := svc.Insights(context.Background(), plainUser, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Insights, second.Insights)
	assert.Equal(t, 1, gen.calls)
}

func TestInsightsDistinctPromptsDoNotShareCache(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	svc, sheetRepo := newInsightFixture(t, gen)

	sheetRepo.On("FindByID", mock.Anything, "s1").Return(&model.Sheet{
		ID: "s1", UserID: plainUser.ID, Rows: []byte(`[]`),
	}, nil)

	_, err := svc.Insights(context.Background(), plainUser, InsightRequest{SheetID: "s1", Prompt: "first"})
	require.NoError(t, err)
	_, err = svc.Insights(context.Background(), plainUser, InsightRequest{SheetID: "s1", Prompt: "second"})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
}

func TestInsightsRequiresSheetAndPrompt(t *testing.T) {
	svc, _ := newInsightFixture(t, &stubGenerator{})

	for _, req := range []InsightRequest{
		{SheetID: "", Prompt: "p"},
		{SheetID: "s1", Prompt: ""},
	} {
		_, err := svc.Insights(context.Background(), plainUser, req)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
	}
}

func TestInsightsDeniedForNonOwner(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	svc, sheetRepo := newInsightFixture(t, gen)

	sheetRepo.On("FindByID", mock.Anything, "s1").Return(&model.Sheet{
		ID: "s1", UserID: "someone-else", Rows: []byte(`[]`),
	}, nil)

	_, err := svc.Insights(context.Background(), plainUser, InsightRequest{SheetID: "s1", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))
	assert.Zero(t, gen.calls)
}

func TestInsightsUnknownSheet(t *testing.T) {
	svc, sheetRepo := newInsightFixture(t, &stubGenerator{})
	sheetRepo.On("FindByID", mock.Anything, "ghost").Return(nil, common.ErrNotFound)

	_, err := svc.Insights(context.Background(), plainUser, InsightRequest{SheetID: "ghost", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))
}

func TestInsightsGeneratorFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream unavailable")}
	svc, sheetRepo := newInsightFixture(t, gen)

	sheetRepo.On("FindByID", mock.Anything, "s1").Return(&model.Sheet{
		ID: "s1", UserID: plainUser.ID, Rows: []byte(`[]`),
	}, nil)

	_, err := svc.Insights(context.Background(), plainUser, InsightRequest{SheetID: "s1", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, common.HTTPStatusFromError(err))
	assert.True(t, strings.Contains(err.Error(), "failed to generate insights"))
}
