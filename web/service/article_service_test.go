package service

import (
	"testing"

	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/web/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCreator registers a user and moves them into the creator group.
func newCreator(t *testing.T, env *testEnv, admin *entity.AuthResponse, username, email string) *entity.AuthResponse {
	t.Helper()
	resp := env.register(t, username, email)
	_, err := env.groups.UpdateUserGroups(resp.User.Id, []string{model.GroupCreator}, admin.User.Id)
	require.NoError(t, err)
	return resp
}

func TestCreateRequiresContentRight(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	reader := env.register(t, "reader", "reader@example.com")

	_, err := env.articles.Create(reader.User.Id, entity.CreateArticleRequest{Title: "Nope"})
	require.Error(t, err)
	assert.Equal(t, common.KindAuthorization, common.KindOf(err))

	// The wildcard satisfies create_content without holding it literally.
	article, err := env.articles.Create(admin.User.Id, entity.CreateArticleRequest{Title: "Admin post"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, article.Status)
}

func TestSlugDerivationAndSuffix(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")

	first, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", first.Slug)
	assert.Nil(t, first.PublishedAt)

	second, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", second.Slug)

	third, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", third.Slug)
}

func TestNonPublishedVisibility(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	reader := env.register(t, "reader", "reader@example.com")

	draft, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Secret", Status: "draft",
	})
	require.NoError(t, err)

	author := &entity.Identity{UserId: writer.User.Id}
	wildcard := &entity.Identity{UserId: admin.User.Id}
	stranger := &entity.Identity{UserId: reader.User.Id}

	_, err = env.articles.Get(draft.Slug, author)
	assert.NoError(t, err)
	_, err = env.articles.Get(draft.Slug, wildcard)
	assert.NoError(t, err)

	// Concealed as 404, not 403: existence must not leak.
	_, err = env.articles.Get(draft.Slug, stranger)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
	_, err = env.articles.Get(draft.Slug, nil)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestViewCounting(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	reader := env.register(t, "reader", "reader@example.com")

	article, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Counted", Status: "published",
	})
	require.NoError(t, err)

	author := &entity.Identity{UserId: writer.User.Id}
	stranger := &entity.Identity{UserId: reader.User.Id}

	// Author reads never count, however many.
	for i := 0; i < 3; i++ {
		got, err := env.articles.Get(article.Slug, author)
		require.NoError(t, err)
		assert.EqualValues(t, 0, got.Views)
	}

	// Each non-author read counts exactly once; anonymous counts too.
	got, err := env.articles.Get(article.Slug, stranger)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	got, err = env.articles.Get(article.Slug, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)
}

func TestDraftReadsNeverCount(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")

	article, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Hidden", Status: "draft",
	})
	require.NoError(t, err)

	// Even a wildcard holder reading a draft does not bump views.
	wildcard := &entity.Identity{UserId: admin.User.Id}
	got, err := env.articles.Get(article.Slug, wildcard)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Views)
}

func TestPublishedAtIsSetOnce(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	author := &entity.Identity{UserId: writer.User.Id}

	article, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Hello World", Status: "draft",
	})
	require.NoError(t, err)
	require.Nil(t, article.PublishedAt)

	published, err := env.articles.ChangeStatus(article.Id, author, model.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	t1 := *published.PublishedAt

	_, err = env.articles.ChangeStatus(article.Id, author, model.StatusDraft)
	require.NoError(t, err)
	republished, err := env.articles.ChangeStatus(article.Id, author, model.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, republished.PublishedAt)
	assert.True(t, t1.Equal(*republished.PublishedAt))
}

func TestMutationRequiresOwnershipOrWildcard(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	other := newCreator(t, env, admin, "other", "other@example.com")

	article, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Mine", Status: "published",
	})
	require.NoError(t, err)

	intruder := &entity.Identity{UserId: other.User.Id}
	newTitle := "Stolen"

	// A published article is visibly denied, not concealed.
	_, err = env.articles.Update(article.Id, intruder, entity.UpdateArticleRequest{Title: &newTitle})
	assert.Equal(t, common.KindAuthorization, common.KindOf(err))
	_, err = env.articles.ChangeStatus(article.Id, intruder, model.StatusPrivate)
	assert.Equal(t, common.KindAuthorization, common.KindOf(err))
	err = env.articles.Delete(article.Id, intruder)
	assert.Equal(t, common.KindAuthorization, common.KindOf(err))

	// The wildcard holder may edit without authorship.
	wildcard := &entity.Identity{UserId: admin.User.Id}
	updated, err := env.articles.Update(article.Id, wildcard, entity.UpdateArticleRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Stolen", updated.Title)
}

func TestUpdateSlugConflict(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	author := &entity.Identity{UserId: writer.User.Id}

	a, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{Title: "First"})
	require.NoError(t, err)
	b, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{Title: "Second"})
	require.NoError(t, err)

	_, err = env.articles.Update(b.Id, author, entity.UpdateArticleRequest{Slug: &a.Slug})
	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestUpdateReplacesTags(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	author := &entity.Identity{UserId: writer.User.Id}

	article, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Tagged", Tags: []string{"go", "go", "web"},
	})
	require.NoError(t, err)
	assert.Len(t, article.Tags, 2)

	tags := []string{"ml"}
	updated, err := env.articles.Update(article.Id, author, entity.UpdateArticleRequest{Tags: &tags})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "ml", updated.Tags[0].Tag)
}

func TestListVisibilityAndTagFilter(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")

	_, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Public", Status: "published", Tags: []string{"go"},
	})
	require.NoError(t, err)
	_, err = env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Hidden draft", Status: "draft",
	})
	require.NoError(t, err)

	// Anonymous listing only sees published articles.
	articles, pagination, err := env.articles.List(1, 20, "", false, nil)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.EqualValues(t, 1, pagination.Total)
	assert.Equal(t, "Public", articles[0].Title)

	// Tag filter.
	articles, _, err = env.articles.List(1, 20, "go", false, nil)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	articles, _, err = env.articles.List(1, 20, "rust", false, nil)
	require.NoError(t, err)
	assert.Len(t, articles, 0)

	// mine=1 includes the author's drafts.
	author := &entity.Identity{UserId: writer.User.Id}
	articles, _, err = env.articles.List(1, 20, "", true, author)
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	// mine without a login is an authentication failure.
	_, _, err = env.articles.List(1, 20, "", true, nil)
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))
}

func TestDeleteRemovesArticle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "admin@example.com")
	writer := newCreator(t, env, admin, "writer", "writer@example.com")
	author := &entity.Identity{UserId: writer.User.Id}

	article, err := env.articles.Create(writer.User.Id, entity.CreateArticleRequest{
		Title: "Doomed", Tags: []string{"tmp"},
	})
	require.NoError(t, err)

	require.NoError(t, env.articles.Delete(article.Id, author))

	_, err = env.articles.Get(article.Slug, author)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	var tagCount int64
	require.NoError(t, env.db.Model(&model.ArticleTag{}).
		Where("article_id = ?", article.Id).Count(&tagCount).Error)
	assert.EqualValues(t, 0, tagCount)
}

func TestScenarioBootstrapToRepublish(t *testing.T) {
	env := newTestEnv(t)

	// First user ever holds the wildcard.
	a := env.register(t, "usera", "a@example.com")
	rights, err := env.rights.EffectiveRights(a.User.Id)
	require.NoError(t, err)
	require.True(t, rights.HasWildcard())

	// Second does not.
	b := env.register(t, "userb", "b@example.com")
	rights, err = env.rights.EffectiveRights(b.User.Id)
	require.NoError(t, err)
	require.False(t, rights.HasWildcard())

	// A promotes B to creator.
	groups, err := env.groups.UpdateUserGroups(b.User.Id, []string{model.GroupCreator}, a.User.Id)
	require.NoError(t, err)
	require.Equal(t, []string{model.GroupCreator}, groups)

	// B drafts "Hello World".
	article, err := env.articles.Create(b.User.Id, entity.CreateArticleRequest{
		Title: "Hello World", Status: "draft",
	})
	require.NoError(t, err)
	require.Equal(t, "hello-world", article.Slug)
	require.Nil(t, article.PublishedAt)

	// Publish, unpublish, republish: published_at stays at T1.
	bId := &entity.Identity{UserId: b.User.Id}
	published, err := env.articles.ChangeStatus(article.Id, bId, model.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	t1 := *published.PublishedAt

	_, err = env.articles.ChangeStatus(article.Id, bId, model.StatusDraft)
	require.NoError(t, err)
	final, err := env.articles.ChangeStatus(article.Id, bId, model.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, final.PublishedAt)
	assert.True(t, t1.Equal(*final.PublishedAt))
}
