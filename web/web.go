// Package web provides the HTTP server of the modelhub platform:
// routing, middleware wiring and background job scheduling.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/modelhub/modelhub/config"
	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/util/random"
	"github.com/modelhub/modelhub/web/controller"
	"github.com/modelhub/modelhub/web/job"
	"github.com/modelhub/modelhub/web/middleware"
	"github.com/modelhub/modelhub/web/service"
	"github.com/modelhub/modelhub/web/token"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Server owns the gin engine, the service graph and the cron scheduler.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	db     *gorm.DB
	tokens *token.Manager

	rightsService    *service.RightsService
	sessionService   *service.SessionService
	userService      *service.UserService
	groupService     *service.GroupService
	articleService   *service.ArticleService
	analyticsService *service.AnalyticsService

	auth     *controller.AuthController
	users    *controller.UserController
	articles *controller.ArticleController
	server   *controller.ServerController

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer wires the service graph over the given database handle.
func NewServer(db *gorm.DB) (*Server, error) {
	secret := config.GetTokenSecret()
	if secret == "" {
		secret = random.Seq(48)
		logger.Warning("MHUB_TOKEN_SECRET is not set; using an ephemeral secret, " +
			"all sessions will be invalidated on restart")
	}
	tokens, err := token.NewManager(secret, config.GetName())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{ctx: ctx, cancel: cancel, db: db, tokens: tokens}

	s.analyticsService = service.NewAnalyticsService()
	s.rightsService = service.NewRightsService(db)
	s.sessionService = service.NewSessionService(db, tokens)
	s.userService = service.NewUserService(db, s.sessionService, s.rightsService)
	s.groupService = service.NewGroupService(db, s.rightsService)
	s.articleService = service.NewArticleService(db, s.rightsService, s.analyticsService)
	return s, nil
}

// initRouter initializes gin, registers middleware and controllers and
// returns the configured engine.
func (s *Server) initRouter() *gin.Engine {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(s.analyticsService))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authRequired := middleware.SessionAuth(s.tokens, s.sessionService, true)
	authOptional := middleware.SessionAuth(s.tokens, s.sessionService, false)

	s.auth = controller.NewAuthController(engine.Group("/auth"), authRequired,
		s.userService, s.sessionService)
	s.users = controller.NewUserController(engine.Group("/users"), authRequired, authOptional,
		s.userService, s.groupService, s.rightsService)
	s.articles = controller.NewArticleController(engine.Group("/articles"), authRequired, authOptional,
		s.articleService)
	s.server = controller.NewServerController(engine.Group(""), authOptional,
		s.analyticsService)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	s.cron.AddJob("@hourly", job.NewSessionCleanupJob(s.sessionService))
}

// Start begins listening and serving requests.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New()
	s.cron.Start()

	engine := s.initRouter()

	listenAddr := net.JoinHostPort(config.GetListenAddr(), strconv.Itoa(config.GetListenPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()
	return nil
}

// Stop gracefully shuts down the web server and the cron scheduler.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }
