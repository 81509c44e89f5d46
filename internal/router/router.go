package router

import (
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"siif/internal/config"
	"siif/internal/handlers"
	"siif/internal/middleware"
	"siif/internal/render"
	"siif/internal/services"
	"siif/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Services bundles the long-lived dependencies shared by the handlers.
type Services struct {
	Storage    *services.Storage
	Moderator  *services.Moderator
	Mail       *services.MailService
	SUAP       *services.SUAPService
	Captcha    *services.CaptchaService
	Aggregator *services.NewsAggregator
	Limiter    *middleware.RateLimiter
}

func NewServices(cfg *config.Config) *Services {
	return &Services{
		Storage:    services.NewStorage(cfg.Server.UploadDir, cfg.Server.MaxUploadMB),
		Moderator:  services.NewModerator(cfg.Moderation.BannedWords),
		Mail:       services.NewMailService(cfg.SMTP),
		SUAP:       services.NewSUAPService(cfg.SUAP),
		Captcha:    services.NewCaptchaService(),
		Aggregator: services.NewNewsAggregator(cfg.News),
		Limiter:    middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}
}

// New builds the engine: sessions, templates, static files, middleware and routes.
func New(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("siif_session", store))

	renderer, err := render.LoadTemplates(web.Templates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.HTMLRender = renderer

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))
	r.Static("/uploads", cfg.Server.UploadDir)

	handlers.RegisterValidators()
	r.Use(svc.Limiter.Middleware())
	r.Use(middleware.LoadUser())

	RegisterRoutes(r, cfg, svc)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, svc *Services) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.SUAP)
	homeHandler := handlers.NewHomeHandler()
	newsHandler := handlers.NewNewsHandler(svc.Storage, svc.Aggregator)
	eventHandler := handlers.NewEventHandler()
	forumHandler := handlers.NewForumHandler(svc.Moderator, svc.Mail, cfg.Server.SiteURL)
	reactionHandler := handlers.NewReactionHandler()
	communityHandler := handlers.NewCommunityHandler()
	materialHandler := handlers.NewMaterialHandler(svc.Storage)
	notificationHandler := handlers.NewNotificationHandler()
	reportHandler := handlers.NewReportHandler(svc.Captcha)
	userHandler := handlers.NewUserHandler(svc.Storage, svc.SUAP)
	kanbanHandler := handlers.NewKanbanHandler()
	adminHandler := handlers.NewAdminHandler(svc.Storage, svc.Mail)
	seoHandler := handlers.NewSEOHandler(cfg.Server.SiteURL)

	// Public Routes
	r.GET("/", homeHandler.RedirectHome)
	r.GET("/index", homeHandler.RedirectHome)
	r.GET("/home", homeHandler.Index)
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)

	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/register", authHandler.ShowRegister)
	r.POST("/register", authHandler.Register)
	r.GET("/logout", authHandler.Logout)
	r.GET("/auth/suap/login", authHandler.SUAPLogin)
	r.GET("/auth/suap/callback", authHandler.SUAPCallback)

	r.GET("/noticias", newsHandler.List)
	r.GET("/noticias/feed.xml", seoHandler.NewsFeed)
	r.GET("/noticias/:id", newsHandler.Detail)
	r.GET("/eventos", eventHandler.Page)
	r.GET("/mapa", eventHandler.Map)

	r.GET("/foruns", forumHandler.List)
	r.GET("/foruns/:id", forumHandler.Detail)
	r.GET("/comunidades", communityHandler.List)
	r.GET("/c/:slug", communityHandler.Detail)
	r.GET("/materiais", materialHandler.List)
	r.GET("/materiais/download/:id", materialHandler.Download)
	r.GET("/u/:id", userHandler.Public)

	r.GET("/suporte", reportHandler.Support)
	r.POST("/suporte", reportHandler.SupportSubmit)
	r.POST("/suporte/relato", reportHandler.Ticket)
	r.POST("/denunciar", reportHandler.Create)

	// JSON API
	api := r.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.SiteURL},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	{
		api.GET("/noticias", newsHandler.APIList)
		api.GET("/eventos", eventHandler.APIList)
		api.GET("/mapa/pontos", eventHandler.APIPoints)

		apiAdmin := api.Group("")
		apiAdmin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		apiAdmin.POST("/noticias", newsHandler.APICreate)
		apiAdmin.DELETE("/noticias/:id", newsHandler.APIDelete)
		apiAdmin.POST("/eventos", eventHandler.APICreate)
		apiAdmin.DELETE("/eventos/:id", eventHandler.APIDelete)
	}

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/foruns/novo", forumHandler.ShowCreate)
		authorized.POST("/foruns/novo", forumHandler.Create)
		authorized.POST("/foruns/:id/responder", forumHandler.Reply)
		authorized.POST("/foruns/:id/curtir", reactionHandler.Like)
		authorized.POST("/foruns/:id/salvar", reactionHandler.Save)
		authorized.POST("/foruns/:id/votar", forumHandler.Vote)
		authorized.GET("/foruns/:id/editar", forumHandler.ShowEdit)
		authorized.POST("/foruns/:id/editar", forumHandler.Update)
		authorized.POST("/foruns/:id/excluir", forumHandler.Delete)
		authorized.POST("/respostas/:id/excluir", forumHandler.DeleteReply)
		authorized.GET("/salvos", forumHandler.Saved)

		authorized.POST("/comunidades", communityHandler.Create)
		authorized.POST("/c/:slug/entrar", communityHandler.Join)
		authorized.POST("/c/:slug/sair", communityHandler.Leave)
		authorized.POST("/c/:slug/solicitacoes/:id/aprovar", communityHandler.Approve)
		authorized.POST("/c/:slug/solicitacoes/:id/recusar", communityHandler.Reject)
		authorized.POST("/c/:slug/moderadores", communityHandler.AddModerator)
		authorized.POST("/c/:slug/moderadores/:uid/remover", communityHandler.RemoveModerator)

		authorized.POST("/materiais/adicionar", materialHandler.Add)
		authorized.POST("/materiais/excluir/:id", materialHandler.Delete)
		authorized.POST("/materiais/:id/favoritar", reactionHandler.Favorite)

		authorized.GET("/notificacoes", notificationHandler.List)
		authorized.POST("/notificacoes/lidas", notificationHandler.ReadAll)
		authorized.POST("/notificacoes/:id/lida", notificationHandler.Read)
		authorized.POST("/notificacoes/:id/excluir", notificationHandler.Delete)

		authorized.GET("/perfil", userHandler.Me)
		authorized.POST("/perfil", userHandler.Update)
		authorized.GET("/boletim", userHandler.Boletim)

		authorized.GET("/kanban", kanbanHandler.Board)
		authorized.POST("/kanban", kanbanHandler.Create)
		authorized.POST("/kanban/:id/mover", kanbanHandler.Move)
		authorized.POST("/kanban/:id/excluir", kanbanHandler.Delete)
	}

	// Admin Routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", adminHandler.Dashboard)
		admin.GET("/usuarios", adminHandler.Users)
		admin.POST("/usuarios/:id/promover", adminHandler.Promote)
		admin.POST("/usuarios/:id/banir", adminHandler.Ban)
		admin.GET("/denuncias", adminHandler.Reports)
		admin.POST("/denuncias/:id/status", adminHandler.ReportStatus)
		admin.POST("/topicos/:id/excluir", adminHandler.DeleteTopic)
		admin.POST("/topicos/:id/fixar", adminHandler.TogglePin)
		admin.POST("/topicos/:id/trancar", adminHandler.ToggleLock)
		admin.POST("/respostas/:id/excluir", adminHandler.DeleteReply)
		admin.GET("/faq", adminHandler.FAQ)
		admin.POST("/faq", adminHandler.SaveFAQ)
		admin.POST("/faq/:id", adminHandler.SaveFAQ)
		admin.POST("/faq/:id/excluir", adminHandler.DeleteFAQ)
		admin.GET("/auditoria", adminHandler.Audit)
		admin.GET("/seguranca", adminHandler.Security)
		admin.POST("/noticias/agregar", newsHandler.Aggregate)
	}
}
