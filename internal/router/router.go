package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/handlers"
	"yatube/internal/middleware"
	"yatube/internal/services"
	"yatube/internal/web"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config    *config.Config
	Posts     *services.PostService
	Comments  *services.CommentService
	Follows   *services.FollowService
	Groups    *services.GroupService
	Auth      *services.AuthService
	Listing   *cache.ListingCache
	Templates *web.Templates
}

// New builds the engine with middleware and every route registered.
func New(d Deps) *gin.Engine {
	cfg := d.Config

	r := gin.New()
	r.HTMLRender = d.Templates.HTMLRender()
	r.MaxMultipartMemory = cfg.Media.MaxUploadMB << 20

	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	r.Use(
		middleware.RequestLogger(),
		middleware.Recovery(handlers.ServerError),
		gzip.Gzip(gzip.DefaultCompression),
		sessions.Sessions(cfg.Session.Name, store),
		middleware.LoadUser(d.Auth),
		middleware.LimitWrites(limiter),
	)

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	postHandler := handlers.NewPostHandler(d.Posts, d.Comments, d.Groups, d.Follows, d.Auth, d.Listing, d.Templates)
	groupHandler := handlers.NewGroupHandler(d.Groups)
	authHandler := handlers.NewAuthHandler(d.Auth)
	adminHandler := handlers.NewAdminHandler(d.Listing)

	// Public Routes
	r.GET("/", postHandler.Index)
	r.GET("/groups/", groupHandler.List)
	r.GET("/group/:slug/", postHandler.GroupPosts)
	r.GET("/profile/:username/", postHandler.Profile)
	r.GET("/posts/:post_id/", postHandler.Detail)

	auth := r.Group("/auth")
	{
		auth.GET("/signup/", authHandler.ShowRegister)
		auth.POST("/signup/", authHandler.Register)
		auth.GET("/login/", authHandler.ShowLogin)
		auth.POST("/login/", authHandler.Login)
		auth.GET("/logout/", authHandler.Logout)
	}

	r.Static("/media", d.Config.Media.Root)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/create/", postHandler.ShowCreate)
		authorized.POST("/create/", postHandler.Create)
		authorized.GET("/posts/:post_id/edit/", postHandler.ShowEdit)
		authorized.POST("/posts/:post_id/edit/", postHandler.Update)
		authorized.POST("/posts/:post_id/delete/", postHandler.Delete)
		authorized.POST("/posts/:post_id/comment/", postHandler.AddComment)
		authorized.GET("/follow/", postHandler.FollowIndex)
		authorized.GET("/profile/:username/follow/", postHandler.ProfileFollow)
		authorized.GET("/profile/:username/unfollow/", postHandler.ProfileUnfollow)
	}

	admin := r.Group("/admin")
	admin.Use(handlers.StaffRequired())
	{
		admin.POST("/cache/clear/", adminHandler.ClearCache)
	}

	r.NoRoute(handlers.NotFound)
}
