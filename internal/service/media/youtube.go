package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/cache"
	"github.com/casaiglesia/casa-server/internal/util"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoSearchService resolves backing videos for songs via YouTube search.
// Key-only access; every search.list call costs 100 quota units so results
// are cached and a daily budget is enforced locally.
type VideoSearchService struct {
	service    *youtube.Service
	cache      *cache.CacheService
	logger     *zap.Logger
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

const (
	dailyQuotaLimit   = 10000
	searchQuotaCost   = 100 // search.list cost
	quotaSafetyMargin = 2000

	maxSearchResults = 5
)

func NewVideoSearchService(apiKey string, cacheService *cache.CacheService, logger *zap.Logger) (*VideoSearchService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	ctx := context.Background()
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	vs := &VideoSearchService{
		service:    service,
		cache:      cacheService,
		logger:     logger,
		quotaUsed:  0,
		quotaReset: getNextQuotaReset(),
	}

	logger.Info("Video search service initialized",
		zap.Time("quotaReset", vs.quotaReset))

	return vs, nil
}

// Quota resets daily at midnight Pacific, per Google's accounting.
func getNextQuotaReset() time.Time {
	pt, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Now().In(pt)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, pt)
}

func (vs *VideoSearchService) checkQuota(cost int) error {
	vs.quotaMu.Lock()
	defer vs.quotaMu.Unlock()

	now := time.Now()
	if now.After(vs.quotaReset) {
		vs.quotaUsed = 0
		vs.quotaReset = getNextQuotaReset()
		vs.logger.Info("YouTube API quota auto-reset",
			zap.Time("nextReset", vs.quotaReset))
	}

	if vs.quotaUsed+cost > (dailyQuotaLimit - quotaSafetyMargin) {
		return &QuotaExceededError{
			Used:      vs.quotaUsed,
			Limit:     dailyQuotaLimit,
			Requested: cost,
			ResetTime: vs.quotaReset,
		}
	}

	return nil
}

func (vs *VideoSearchService) consumeQuota(cost int) {
	vs.quotaMu.Lock()
	defer vs.quotaMu.Unlock()

	vs.quotaUsed += cost
	remaining := dailyQuotaLimit - vs.quotaUsed

	vs.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", vs.quotaUsed),
		zap.Int("remaining", remaining))

	if remaining < quotaSafetyMargin {
		vs.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("resetTime", vs.quotaReset))
	}
}

// SearchSongVideos finds video candidates for a song by title and author.
func (vs *VideoSearchService) SearchSongVideos(ctx context.Context, title, author string) ([]*domain.SongVideo, error) {
	query := title
	if author != "" {
		query = fmt.Sprintf("%s %s", title, author)
	}
	query = fmt.Sprintf("%s letra alabanza", query)

	cacheKey := fmt.Sprintf("youtube:songsearch:%s", util.Slugify(query))
	if vs.cache != nil {
		var cached []*domain.SongVideo
		if err := vs.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			vs.logger.Debug("Video search cache hit", zap.String("query", query))
			return cached, nil
		}
	}

	if err := vs.checkQuota(searchQuotaCost); err != nil {
		return nil, err
	}

	vs.logger.Info("Searching YouTube for song video",
		zap.String("query", query))

	call := vs.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoEmbeddable("true").
		MaxResults(maxSearchResults).
		Order("relevance")

	response, err := call.Context(ctx).Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 403 {
			return nil, &QuotaExceededError{
				Used:      vs.quotaUsed,
				Limit:     dailyQuotaLimit,
				Requested: searchQuotaCost,
				ResetTime: vs.quotaReset,
			}
		}
		return nil, fmt.Errorf("YouTube search error: %w", err)
	}

	vs.consumeQuota(searchQuotaCost)

	videos := make([]*domain.SongVideo, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}

		video := &domain.SongVideo{
			VideoID:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
		}
		if thumb := extractThumbnail(item.Snippet.Thumbnails); thumb != "" {
			video.ThumbnailURL = thumb
		}

		videos = append(videos, video)
	}

	if vs.cache != nil && len(videos) > 0 {
		if err := vs.cache.Set(ctx, cacheKey, videos, constants.CacheTTL.SongVideoSearch); err != nil {
			vs.logger.Warn("Failed to cache video search", zap.Error(err))
		}
	}

	vs.logger.Info("Video search completed",
		zap.String("query", query),
		zap.Int("results", len(videos)))

	return videos, nil
}

func extractThumbnail(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}

	if thumbnails.High != nil && thumbnails.High.Url != "" {
		return thumbnails.High.Url
	}
	if thumbnails.Medium != nil && thumbnails.Medium.Url != "" {
		return thumbnails.Medium.Url
	}
	if thumbnails.Default != nil && thumbnails.Default.Url != "" {
		return thumbnails.Default.Url
	}

	return ""
}

func (vs *VideoSearchService) GetQuotaStatus() (used int, remaining int, resetTime time.Time) {
	vs.quotaMu.Lock()
	defer vs.quotaMu.Unlock()

	if time.Now().After(vs.quotaReset) {
		return 0, dailyQuotaLimit, getNextQuotaReset()
	}

	return vs.quotaUsed, util.Max(dailyQuotaLimit-vs.quotaUsed, 0), vs.quotaReset
}

type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}
