package routes

import (
	"net/http"
	"time"

	"senadirectory/handlers"
	"senadirectory/middleware"
	"senadirectory/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handle registers h on g unless the endpoint's handler was not wired.
func handle(g *gin.RouterGroup, method, path string, chain ...gin.HandlerFunc) {
	if len(chain) == 0 || chain[len(chain)-1] == nil {
		return
	}
	g.Handle(method, path, chain...)
}

// RegisterDirectoryRoutes registers public directory endpoints.
func RegisterDirectoryRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/companies")
	{
		handle(api, http.MethodGet, "/search", hb.SearchCompaniesHandler)
		handle(api, http.MethodGet, "/slug/:slug/available", hb.SlugAvailabilityHandler)
		handle(api, http.MethodGet, "/:slug", hb.GetCompanyHandler)
	}
}

// RegisterLiveSearchRoutes registers search-as-you-type sessions.
func RegisterLiveSearchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/search/live")
	{
		handle(api, http.MethodPost, "", hb.OpenLiveSearchHandler)
		handle(api, http.MethodPut, "/:id", hb.LiveSearchInputHandler)
		handle(api, http.MethodGet, "/:id", hb.LiveSearchStateHandler)
		handle(api, http.MethodGet, "/:id/events", hb.LiveSearchEventsHandler)
		handle(api, http.MethodDelete, "/:id", hb.CloseLiveSearchHandler)
	}
}

// RegisterRegistrationRoutes registers the onboarding wizard. Only the final
// step needs an authenticated owner.
func RegisterRegistrationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/registration")
	{
		handle(api, http.MethodPost, "", hb.StartRegistrationHandler)
		handle(api, http.MethodGet, "/:id", hb.GetRegistrationHandler)
		handle(api, http.MethodPut, "/:id/template", hb.RegistrationTemplateHandler)
		handle(api, http.MethodPut, "/:id/platforms", hb.RegistrationPlatformsHandler)
		handle(api, http.MethodPut, "/:id/links", hb.RegistrationLinksHandler)
		handle(api, http.MethodPut, "/:id/identity", hb.RegistrationIdentityHandler)
		handle(api, http.MethodPut, "/:id/username", hb.RegistrationUsernameHandler)
		handle(api, http.MethodGet, "/:id/username", hb.UsernameStatusHandler)
		handle(api, http.MethodPost, "/:id/continue", hb.RegistrationContinueHandler)
		handle(api, http.MethodPost, "/:id/back", hb.RegistrationBackHandler)
		handle(api, http.MethodPost, "/:id/skip", hb.RegistrationSkipHandler)

		protected := api.Group("")
		protected.Use(middleware.HostedAuthMiddleware(hb.AuthSecret, false))
		handle(protected, http.MethodPost, "/:id/complete", hb.CompleteRegistrationHandler)
	}

	me := r.Group("/api/me")
	me.Use(middleware.HostedAuthMiddleware(hb.AuthSecret, false))
	handle(me, http.MethodGet, "", hb.UserDataHandler)
}

// RegisterSocialRoutes registers social link endpoints. Reads accept an
// optional token so "me" resolves to the caller.
func RegisterSocialRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/social")
	{
		protected := api.Group("")
		protected.Use(middleware.HostedAuthMiddleware(hb.AuthSecret, false))
		handle(protected, http.MethodPost, "/cache/clear", hb.ClearSocialCacheHandler)
		handle(protected, http.MethodPut, "/:owner", hb.SaveSocialProfileHandler)
		handle(protected, http.MethodPatch, "/:owner/:platform", hb.UpdateSocialPlatformHandler)
		handle(protected, http.MethodDelete, "/:owner/:platform", hb.RemoveSocialPlatformHandler)

		public := api.Group("")
		public.Use(middleware.HostedAuthMiddleware(hb.AuthSecret, true))
		handle(public, http.MethodGet, "/:owner", hb.GetSocialProfileHandler)
		handle(public, http.MethodGet, "/:owner/resolve/:platform", hb.ResolveSocialURLHandler)
	}
}

// RegisterEmailRoutes registers the simulated outbox and the contact form.
func RegisterEmailRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/emails")
	{
		handle(api, http.MethodGet, "", hb.ListEmailsHandler)
		handle(api, http.MethodGet, "/stats", hb.EmailStatsHandler)
		handle(api, http.MethodGet, "/export", hb.ExportEmailsHandler)
		handle(api, http.MethodPost, "/send", hb.SendEmailHandler)

		protected := api.Group("")
		protected.Use(middleware.HostedAuthMiddleware(hb.AuthSecret, false))
		handle(protected, http.MethodPost, "/import", hb.ImportEmailsHandler)
		handle(protected, http.MethodDelete, "", hb.ClearEmailsHandler)
	}
	handle(&r.RouterGroup, http.MethodPost, "/api/contact", hb.ContactHandler)
}

// RegisterArticleRoutes registers long-form article content.
func RegisterArticleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	handle(&r.RouterGroup, http.MethodGet, "/api/articles/*path", hb.GetArticleHandler)
}

// RegisterHealthRoutes registers health and metrics endpoints.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Mongo || !status.Redis {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": http.StatusText(code), "checks": status})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Username-Status"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoutes(r)
	RegisterDirectoryRoutes(r, hb)
	RegisterLiveSearchRoutes(r, hb)
	RegisterRegistrationRoutes(r, hb)
	RegisterSocialRoutes(r, hb)
	RegisterEmailRoutes(r, hb)
	RegisterArticleRoutes(r, hb)
}
