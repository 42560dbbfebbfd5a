package service

import (
	"time"

	"github.com/modelhub/modelhub/config"
	"github.com/modelhub/modelhub/web/entity"

	"go.uber.org/atomic"
)

// AnalyticsService keeps cheap in-process counters since startup. They
// are observability only; the persisted per-article view counters in
// the articles table are the durable record.
type AnalyticsService struct {
	startedAt    time.Time
	requests     atomic.Int64
	articleViews atomic.Int64
}

func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{startedAt: time.Now()}
}

func (s *AnalyticsService) CountRequest() {
	s.requests.Inc()
}

func (s *AnalyticsService) CountArticleView() {
	s.articleViews.Inc()
}

func (s *AnalyticsService) Status() entity.ServerStatus {
	return entity.ServerStatus{
		Version:       config.GetVersion(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Requests:      s.requests.Load(),
		ArticleViews:  s.articleViews.Load(),
	}
}
