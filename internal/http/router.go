package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fardapack/fardapack-crm/internal/http/handlers"
	"github.com/fardapack/fardapack-crm/internal/http/middleware"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/auth"
	"github.com/fardapack/fardapack-crm/internal/observability"
)

// RouterDeps carries what the router mounts
type RouterDeps struct {
	Auth     *handlers.AuthHandlers
	CRM      *handlers.CRMHandlers
	Policies *handlers.PolicyHandlers
	AuthMW   *middleware.AuthMW
	CasbinMW *middleware.CasbinMW
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
}

func BuildRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if d.Logger != nil {
		r.Use(middleware.Logger(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.POST("/auth/login", d.Auth.Login)

	v := r.Group("/", d.AuthMW.WithSession())
	v.GET("/auth/me", d.Auth.Me)
	v.POST("/auth/logout", d.Auth.Logout)

	v.GET("/companies", d.CRM.ListCompanies)
	v.POST("/companies", d.CRM.CreateCompany)
	v.DELETE("/companies/:id", d.CRM.DeleteCompany)

	v.GET("/contacts", d.CRM.ListContacts)
	v.POST("/contacts", d.CRM.CreateContact)
	v.GET("/contacts/refs", d.CRM.ListContactRefs)
	v.POST("/contacts/reassign", d.CRM.ReassignContacts)
	v.GET("/contacts/:id", d.CRM.GetContact)
	v.PATCH("/contacts/:id", d.CRM.UpdateContact)
	v.DELETE("/contacts/:id", d.CRM.DeleteContact)

	v.GET("/calls", d.CRM.ListCalls)
	v.POST("/calls", d.CRM.CreateCall)

	v.GET("/followups", d.CRM.ListFollowups)
	v.POST("/followups", d.CRM.CreateFollowup)
	v.PATCH("/followups/:id/status", d.CRM.UpdateFollowupStatus)

	v.GET("/dashboard", d.CRM.Dashboard)

	v.GET("/accounts", d.Auth.ListAccounts)
	v.POST("/accounts", d.Auth.CreateAccount)

	adm := r.Group("/admin", d.AuthMW.WithSession())
	adm.GET("/policies", d.CasbinMW.Require(auth.ResourcePolicies, auth.ActionRead), d.Policies.List)
	adm.POST("/policies", d.CasbinMW.Require(auth.ResourcePolicies, auth.ActionWrite), d.Policies.Add)
	adm.DELETE("/policies", d.CasbinMW.Require(auth.ResourcePolicies, auth.ActionDelete), d.Policies.Remove)

	return r
}
