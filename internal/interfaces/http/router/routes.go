package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
)

// API holds everything the versioned routes are served by
type API struct {
	// Guard rejects requests without a valid session
	Guard gin.HandlerFunc
	// LoginLimit and MessageLimit throttle the public write routes. Either
	// may be nil.
	LoginLimit   gin.HandlerFunc
	MessageLimit gin.HandlerFunc

	Resources *handler.ResourceHandler
	Billing   *appbilling.Resources
	Inbox     handler.Resource

	Teams    *handler.TeamHandler
	Messages *handler.MessageHandler
	Charts   *handler.ChartsHandler
	Health   *handler.HealthHandler
	// Metrics serves the Prometheus exposition on MetricsPath, nil
	// disables it
	Metrics     http.Handler
	MetricsPath string
}

// Groups declares every domain group of the API
func (a API) Groups() []RouteRegistrar {
	teams := NewDomainGroup("teams", "/teams")
	teams.PUT("/register", a.Teams.Register)
	teams.POST("/login", a.LoginLimit, a.Teams.Login)
	teams.GET("/:id/image", a.Teams.GetImage)
	teams.Group("session", "").Use(a.Guard).
		POST("/logout", a.Teams.Logout).
		GET("/profile", a.Teams.GetProfile).
		PATCH("/profile", a.Teams.UpdateProfile).
		PUT("/profile/image", a.Teams.UploadImage)

	customers := NewDomainGroup("customers", "/customers").Use(a.Guard).
		Resource(a.Resources, a.Billing.Customers)
	customers.Group("addresses", "/:id/"+a.Billing.Addresses.Segment()).
		Resource(a.Resources, a.Billing.Addresses)

	invoices := NewDomainGroup("invoices", "/invoices").Use(a.Guard).
		Resource(a.Resources, a.Billing.Invoices)
	invoices.Group("fields", "/:id/"+a.Billing.Fields.Segment()).
		Resource(a.Resources, a.Billing.Fields)

	contracts := NewDomainGroup("contracts", "/contracts").Use(a.Guard).
		Resource(a.Resources, a.Billing.Contracts)

	messages := NewDomainGroup("messages", "/messages")
	messages.PUT("", a.MessageLimit, a.Messages.Submit)
	messages.Group("inbox", "").Use(a.Guard).
		Resource(a.Resources, a.Inbox)

	charts := NewDomainGroup("charts", "/charts").Use(a.Guard).
		GET("", a.Charts.Get)

	system := NewDomainGroup("system", "")
	system.GET("/health", a.Health.Health)
	if a.Metrics != nil {
		path := a.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		system.GET(path, gin.WrapH(a.Metrics))
	}

	return []RouteRegistrar{teams, customers, invoices, contracts, messages, charts, system}
}
