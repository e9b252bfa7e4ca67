package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/domain/repository"
	"sheet_analytics/internal/platform/genai"
	"sheet_analytics/internal/platform/metrics"

	"github.com/redis/go-redis/v9"
)

// InsightService relays stored sheet data plus a caller prompt to the
// generative API, caching responses per sheet and prompt.
type InsightService struct {
	sheetRepo repository.SheetRepository
	generator genai.Generator
	rdb       *redis.Client
	cacheTTL  time.Duration
}

func NewInsightService(
	sheetRepo repository.SheetRepository,
	generator genai.Generator,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *InsightService {
	return &InsightService{sheetRepo: sheetRepo, generator: generator, rdb: rdb, cacheTTL: cacheTTL}
}

type InsightRequest struct {
	SheetID string `json:"sheet_id"`
	Prompt  string `json:"prompt"`
}

type InsightResponse struct {
	SheetID  string `json:"sheet_id"`
	Insights string `json:"insights"`
	Cached   bool   `json:"cached"`
}

func (s *InsightService) Insights(ctx context.Context, caller *model.User, req InsightRequest) (*InsightResponse, error) {
	if req.SheetID == "" || req.Prompt == "" {
		return nil, common.Errorf("sheet_id and prompt are required: %w", common.ErrBadRequest)
	}

	sheet, err := s.sheetRepo.FindByID(ctx, req.SheetID)
	if err != nil {
		return nil, err
	}
	if !canAccessSheet(caller, sheet.UserID) {
		return nil, common.Errorf("you do not have access to this file: %w", common.ErrForbidden)
	}

	cacheKey := insightCacheKey(sheet.ID, req.Prompt)
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		metrics.InsightRequests.WithLabelValues("hit").Inc()
		return &InsightResponse{SheetID: sheet.ID, Insights: cached, Cached: true}, nil
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("WARN: insight cache read failed for %s: %v", cacheKey, err)
	}

	fullPrompt := fmt.Sprintf(
		"You are a data analyst. Analyze the following JSON data: %s. "+
			"Based on the data, provide a professional and detailed response to the following query: %q.",
		string(sheet.Rows), req.Prompt,
	)

	text, err := s.generator.Generate(ctx, fullPrompt)
	if err != nil {
		metrics.InsightRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	if err := s.rdb.Set(ctx, cacheKey, text, s.cacheTTL).Err(); err != nil {
		log.Printf("WARN: insight cache write failed for %s: %v", cacheKey, err)
	}

	metrics.InsightRequests.WithLabelValues("miss").Inc()
	return &InsightResponse{SheetID: sheet.ID, Insights: text}, nil
}

func insightCacheKey(sheetID, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "insight:" + sheetID + ":" + hex.EncodeToString(sum[:8])
}
