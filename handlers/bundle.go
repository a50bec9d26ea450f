package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// AuthSecret verifies hosted-auth access tokens on protected routes.
	AuthSecret []byte

	// Directory endpoints
	SearchCompaniesHandler  gin.HandlerFunc
	SlugAvailabilityHandler gin.HandlerFunc
	GetCompanyHandler       gin.HandlerFunc

	// Live search endpoints
	OpenLiveSearchHandler   gin.HandlerFunc
	LiveSearchInputHandler  gin.HandlerFunc
	LiveSearchStateHandler  gin.HandlerFunc
	LiveSearchEventsHandler gin.HandlerFunc
	CloseLiveSearchHandler  gin.HandlerFunc

	// Registration endpoints
	StartRegistrationHandler     gin.HandlerFunc
	GetRegistrationHandler       gin.HandlerFunc
	RegistrationTemplateHandler  gin.HandlerFunc
	RegistrationPlatformsHandler gin.HandlerFunc
	RegistrationLinksHandler     gin.HandlerFunc
	RegistrationIdentityHandler  gin.HandlerFunc
	RegistrationUsernameHandler  gin.HandlerFunc
	UsernameStatusHandler        gin.HandlerFunc
	RegistrationContinueHandler  gin.HandlerFunc
	RegistrationBackHandler      gin.HandlerFunc
	RegistrationSkipHandler      gin.HandlerFunc
	CompleteRegistrationHandler  gin.HandlerFunc
	UserDataHandler              gin.HandlerFunc

	// Social link endpoints
	GetSocialProfileHandler     gin.HandlerFunc
	SaveSocialProfileHandler    gin.HandlerFunc
	UpdateSocialPlatformHandler gin.HandlerFunc
	RemoveSocialPlatformHandler gin.HandlerFunc
	ResolveSocialURLHandler     gin.HandlerFunc
	ClearSocialCacheHandler     gin.HandlerFunc

	// Email endpoints
	ListEmailsHandler   gin.HandlerFunc
	EmailStatsHandler   gin.HandlerFunc
	SendEmailHandler    gin.HandlerFunc
	ClearEmailsHandler  gin.HandlerFunc
	ExportEmailsHandler gin.HandlerFunc
	ImportEmailsHandler gin.HandlerFunc
	ContactHandler      gin.HandlerFunc

	// Article endpoints
	GetArticleHandler gin.HandlerFunc
}

// Handlers are the constructed handler objects a bundle is assembled from.
// Any of them may be nil, leaving the corresponding endpoints unset.
type Handlers struct {
	Directory    *DirectoryHandler
	LiveSearch   *LiveSearchHandler
	Registration *RegistrationHandler
	Social       *SocialHandler
	Email        *EmailHandler
	Articles     *ArticleHandler
}

// NewHandlerBundle wires handler methods into a bundle.
func NewHandlerBundle(authSecret []byte, h Handlers) *HandlerBundle {
	hb := &HandlerBundle{AuthSecret: authSecret}
	if d := h.Directory; d != nil {
		hb.SearchCompaniesHandler = d.SearchCompaniesHandler
		hb.SlugAvailabilityHandler = d.SlugAvailabilityHandler
		hb.GetCompanyHandler = d.GetCompanyHandler
	}
	if l := h.LiveSearch; l != nil {
		hb.OpenLiveSearchHandler = l.OpenHandler
		hb.LiveSearchInputHandler = l.InputHandler
		hb.LiveSearchStateHandler = l.StateHandler
		hb.LiveSearchEventsHandler = l.EventsHandler
		hb.CloseLiveSearchHandler = l.CloseHandler
	}
	if r := h.Registration; r != nil {
		hb.StartRegistrationHandler = r.StartHandler
		hb.GetRegistrationHandler = r.GetHandler
		hb.RegistrationTemplateHandler = r.TemplateHandler
		hb.RegistrationPlatformsHandler = r.PlatformsHandler
		hb.RegistrationLinksHandler = r.LinksHandler
		hb.RegistrationIdentityHandler = r.IdentityHandler
		hb.RegistrationUsernameHandler = r.UsernameHandler
		hb.UsernameStatusHandler = r.UsernameStatusHandler
		hb.RegistrationContinueHandler = r.ContinueHandler
		hb.RegistrationBackHandler = r.BackHandler
		hb.RegistrationSkipHandler = r.SkipHandler
		hb.CompleteRegistrationHandler = r.CompleteHandler
		hb.UserDataHandler = r.UserDataHandler
	}
	if s := h.Social; s != nil {
		hb.GetSocialProfileHandler = s.GetProfileHandler
		hb.SaveSocialProfileHandler = s.SaveProfileHandler
		hb.UpdateSocialPlatformHandler = s.UpdatePlatformHandler
		hb.RemoveSocialPlatformHandler = s.RemovePlatformHandler
		hb.ResolveSocialURLHandler = s.ResolveHandler
		hb.ClearSocialCacheHandler = s.ClearCacheHandler
	}
	if e := h.Email; e != nil {
		hb.ListEmailsHandler = e.ListHandler
		hb.EmailStatsHandler = e.StatsHandler
		hb.SendEmailHandler = e.SendHandler
		hb.ClearEmailsHandler = e.ClearHandler
		hb.ExportEmailsHandler = e.ExportHandler
		hb.ImportEmailsHandler = e.ImportHandler
		hb.ContactHandler = e.ContactHandler
	}
	if a := h.Articles; a != nil {
		hb.GetArticleHandler = a.GetArticleHandler
	}
	return hb
}
