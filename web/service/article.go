package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/modelhub/modelhub/database"
	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/util/slug"
	"github.com/modelhub/modelhub/web/entity"

	"gorm.io/gorm"
)

// slugRetryLimit bounds the suffix search when racing concurrent
// creations for the same title.
const slugRetryLimit = 100

// ArticleService implements article CRUD together with the per-operation
// authorization gate: creating requires the create_content right,
// mutating requires authorship or the wildcard, and non-published
// articles are concealed from everyone else.
type ArticleService struct {
	db        *gorm.DB
	rights    *RightsService
	analytics *AnalyticsService
}

func NewArticleService(db *gorm.DB, rights *RightsService, analytics *AnalyticsService) *ArticleService {
	return &ArticleService{db: db, rights: rights, analytics: analytics}
}

// Create stores a new article owned by authorId.
func (s *ArticleService) Create(authorId int, req entity.CreateArticleRequest) (*model.Article, error) {
	allowed, err := s.rights.HasRight(authorId, model.RightCreateContent)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, common.Forbidden("missing right to create content")
	}

	status := model.ArticleStatus(req.Status)
	if req.Status == "" {
		status = model.StatusDraft
	}
	if !model.ValidStatus(status) {
		return nil, common.Validation("unknown status %q", req.Status)
	}
	if req.Title == "" {
		return nil, common.Validation("title must not be empty")
	}

	article := &model.Article{
		AuthorId:    authorId,
		Title:       req.Title,
		HeaderImage: req.HeaderImage,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		Status:      status,
		Tags:        uniqueTags(req.Tags),
	}
	if status == model.StatusPublished {
		now := time.Now()
		article.PublishedAt = &now
	}

	base := req.Slug
	if base == "" {
		base = slug.Make(req.Title)
	}

	// The pre-check is a fast path only; the unique index on slug is
	// the authority, so a lost race shows up as a constraint violation
	// and we retry with the next suffix.
	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}
		var taken int64
		err := s.db.Model(&model.Article{}).Where("slug = ?", candidate).Count(&taken).Error
		if err != nil {
			return nil, common.Internal(err)
		}
		if taken > 0 {
			continue
		}

		article.Slug = candidate
		err = s.db.Create(article).Error
		if database.IsUniqueViolation(err) {
			continue
		} else if err != nil {
			return nil, common.Internal(err)
		}
		return article, nil
	}
	return nil, common.Conflict("could not find a free slug for %q", base)
}

// Get resolves an article by numeric id or slug and applies the
// visibility rule: non-published content behaves as not found unless
// the viewer is the author or holds the wildcard. Reads of published
// articles by anyone but the author bump the view counter.
func (s *ArticleService) Get(idOrSlug string, viewer *entity.Identity) (*model.Article, error) {
	article, err := s.find(idOrSlug)
	if err != nil {
		return nil, err
	}

	if article.Status != model.StatusPublished {
		ok, err := s.canMutate(article, viewer)
		if err != nil {
			return nil, err
		}
		if !ok {
			// 404 on purpose: existence of private content is not leaked.
			return nil, common.NotFound("article not found")
		}
		return article, nil
	}

	if viewer == nil || viewer.UserId != article.AuthorId {
		err := s.db.Model(article).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
		if err != nil {
			logger.Warning("failed to count article view:", err)
		} else {
			article.Views++
			s.analytics.CountArticleView()
		}
	}
	return article, nil
}

// List returns one page of articles visible to the viewer: published
// ones, or the viewer's own of any status when mine is set. An optional
// tag filters the result.
func (s *ArticleService) List(page, pageSize int, tag string, mine bool, viewer *entity.Identity) ([]model.Article, entity.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)

	if mine && viewer == nil {
		return nil, entity.Pagination{}, common.Unauthenticated("login required to list own articles")
	}

	// Fresh builder per finisher; Count and Find must not share state.
	build := func() *gorm.DB {
		query := s.db.Model(&model.Article{}).Select("articles.*")
		if mine {
			query = query.Where("author_id = ?", viewer.UserId)
		} else {
			query = query.Where("status = ?", model.StatusPublished)
		}
		if tag != "" {
			query = query.Joins("JOIN article_tags ON article_tags.article_id = articles.id").
				Where("article_tags.tag = ?", tag)
		}
		return query
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, entity.Pagination{}, common.Internal(err)
	}

	var articles []model.Article
	err := build().Preload("Tags").
		Order("articles.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		return nil, entity.Pagination{}, common.Internal(err)
	}

	return articles, entity.Pagination{Page: page, PageSize: pageSize, Total: total}, nil
}

// Update edits an article. Only the author or a wildcard holder may do
// so; a requested slug that is already taken is rejected.
func (s *ArticleService) Update(id int, viewer *entity.Identity, req entity.UpdateArticleRequest) (*model.Article, error) {
	article, err := s.findById(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutate(article, viewer); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, common.Validation("title must not be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Slug != nil && *req.Slug != article.Slug {
		var taken int64
		err := s.db.Model(&model.Article{}).
			Where("slug = ? AND id <> ?", *req.Slug, article.Id).
			Count(&taken).Error
		if err != nil {
			return nil, common.Internal(err)
		}
		if taken > 0 {
			return nil, common.Validation("slug %q is already taken", *req.Slug)
		}
		updates["slug"] = *req.Slug
	}
	if req.HeaderImage != nil {
		updates["header_image"] = *req.HeaderImage
	}
	if req.Excerpt != nil {
		updates["excerpt"] = *req.Excerpt
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(article).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Tags != nil {
			err := tx.Where("article_id = ?", article.Id).Delete(&model.ArticleTag{}).Error
			if err != nil {
				return err
			}
			tags := uniqueTags(*req.Tags)
			for i := range tags {
				tags[i].ArticleId = article.Id
			}
			if len(tags) > 0 {
				if err := tx.Create(&tags).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if database.IsUniqueViolation(err) {
		return nil, common.Validation("slug is already taken")
	} else if err != nil {
		return nil, common.Internal(err)
	}

	return s.findById(id)
}

// ChangeStatus moves an article between draft, published and private.
// The published_at stamp is set on the first transition to published
// and never cleared or reset afterwards.
func (s *ArticleService) ChangeStatus(id int, viewer *entity.Identity, status model.ArticleStatus) (*model.Article, error) {
	if !model.ValidStatus(status) {
		return nil, common.Validation("unknown status %q", status)
	}

	article, err := s.findById(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutate(article, viewer); err != nil {
		return nil, err
	}

	updates := map[string]any{"status": status}
	if status == model.StatusPublished && article.PublishedAt == nil {
		updates["published_at"] = time.Now()
	}

	if err := s.db.Model(article).Updates(updates).Error; err != nil {
		return nil, common.Internal(err)
	}
	return s.findById(id)
}

// Delete removes an article and its tags.
func (s *ArticleService) Delete(id int, viewer *entity.Identity) error {
	article, err := s.findById(id)
	if err != nil {
		return err
	}
	if err := s.requireMutate(article, viewer); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("article_id = ?", article.Id).Delete(&model.ArticleTag{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(article).Error
	})
	if err != nil {
		return common.Internal(err)
	}
	return nil
}

// canMutate reports whether the viewer is the author or holds the
// wildcard right.
func (s *ArticleService) canMutate(article *model.Article, viewer *entity.Identity) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	if viewer.UserId == article.AuthorId {
		return true, nil
	}
	return s.rights.IsAdministrator(viewer.UserId)
}

// requireMutate is canMutate surfaced as an explicit 403: the caller
// already knows the article exists, so denial is not concealed.
func (s *ArticleService) requireMutate(article *model.Article, viewer *entity.Identity) error {
	ok, err := s.canMutate(article, viewer)
	if err != nil {
		return err
	}
	if !ok {
		return common.Forbidden("only the author may modify this article")
	}
	return nil
}

func (s *ArticleService) find(idOrSlug string) (*model.Article, error) {
	if id, err := strconv.Atoi(idOrSlug); err == nil {
		return s.findById(id)
	}
	article := &model.Article{}
	err := s.db.Preload("Tags").Where("slug = ?", idOrSlug).First(article).Error
	if database.IsNotFound(err) {
		return nil, common.NotFound("article not found")
	} else if err != nil {
		return nil, common.Internal(err)
	}
	return article, nil
}

func (s *ArticleService) findById(id int) (*model.Article, error) {
	article := &model.Article{}
	err := s.db.Preload("Tags").Where("id = ?", id).First(article).Error
	if database.IsNotFound(err) {
		return nil, common.NotFound("article not found")
	} else if err != nil {
		return nil, common.Internal(err)
	}
	return article, nil
}

func uniqueTags(tags []string) []model.ArticleTag {
	seen := make(map[string]struct{}, len(tags))
	out := make([]model.ArticleTag, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, model.ArticleTag{Tag: t})
	}
	return out
}
