package controller

import (
	"net/http"
	"strconv"

	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/web/entity"
	"github.com/modelhub/modelhub/web/middleware"
	"github.com/modelhub/modelhub/web/service"

	"github.com/gin-gonic/gin"
)

// ArticleController handles article CRUD. Authorization decisions live
// in the service; the controller only shuttles the viewer identity.
type ArticleController struct {
	articles *service.ArticleService
}

func NewArticleController(g *gin.RouterGroup, authRequired, authOptional gin.HandlerFunc,
	articles *service.ArticleService) *ArticleController {

	a := &ArticleController{articles: articles}
	a.initRouter(g, authRequired, authOptional)
	return a
}

func (a *ArticleController) initRouter(g *gin.RouterGroup, authRequired, authOptional gin.HandlerFunc) {
	g.GET("", authOptional, a.list)
	g.GET("/:idOrSlug", authOptional, a.get)

	g.POST("", authRequired, a.create)
	g.PATCH("/:idOrSlug", authRequired, a.update)
	g.PATCH("/:idOrSlug/status", authRequired, a.changeStatus)
	g.DELETE("/:idOrSlug", authRequired, a.delete)
}

func (a *ArticleController) list(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)
	mine := c.Query("mine") == "1"
	articles, pagination, err := a.articles.List(page, pageSize, c.Query("tag"), mine, middleware.GetIdentity(c))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, entity.ArticleList{Articles: articles, Pagination: pagination})
}

func (a *ArticleController) get(c *gin.Context) {
	article, err := a.articles.Get(c.Param("idOrSlug"), middleware.GetIdentity(c))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, article)
}

func (a *ArticleController) create(c *gin.Context) {
	var req entity.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	identity := middleware.GetIdentity(c)
	article, err := a.articles.Create(identity.UserId, req)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (a *ArticleController) update(c *gin.Context) {
	id, ok := articleId(c)
	if !ok {
		return
	}
	var req entity.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	article, err := a.articles.Update(id, middleware.GetIdentity(c), req)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, article)
}

func (a *ArticleController) changeStatus(c *gin.Context) {
	id, ok := articleId(c)
	if !ok {
		return
	}
	var req entity.ArticleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	article, err := a.articles.ChangeStatus(id, middleware.GetIdentity(c), model.ArticleStatus(req.Status))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, article)
}

func (a *ArticleController) delete(c *gin.Context) {
	id, ok := articleId(c)
	if !ok {
		return
	}
	if err := a.articles.Delete(id, middleware.GetIdentity(c)); err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, "article deleted")
}

// articleId parses the numeric id mutations require; slugs are only
// accepted on reads.
func articleId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("idOrSlug"))
	if err != nil {
		jsonError(c, common.NotFound("article not found"))
		return 0, false
	}
	return id, true
}
