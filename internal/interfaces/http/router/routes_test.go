package router

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/invoicer/backend/internal/application/billing"
	appinbox "github.com/invoicer/backend/internal/application/inbox"
	apptenancy "github.com/invoicer/backend/internal/application/tenancy"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/inbox"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var pngImage = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

// newTestAPI serves the whole API on an in-memory database
func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()
	db := testutil.NewSQLiteDB(t)
	log := zap.NewNop()
	registry := metrics.NewRegistry("test")

	teamRepo := persistence.NewGormTeamRepository(db)
	tokens := persistence.NewGormTokenRepository(db)
	revoked := auth.NewInMemoryRevocationList()
	jwt := auth.NewJWTService([]byte("routes-test-secret-0123456789abcdef"), "invoicer")

	teams := apptenancy.NewTeamResource(teamRepo)
	billingRes := appbilling.NewResources(teams, appbilling.Stores{
		Customers: persistence.NewCustomerStore(db),
		Addresses: persistence.NewGormStore[billing.Address](db),
		Invoices:  persistence.NewInvoiceStore(db),
		Fields:    persistence.NewGormStore[billing.InvoiceField](db),
		Contracts: persistence.NewGormStore[billing.Contract](db),
	})
	messages := persistence.NewGormStore[inbox.Message](db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, registry.RegisterDB(sqlDB, "sqlite"))

	loginLimiter := middleware.NewRateLimiter(100, time.Minute)
	t.Cleanup(loginLimiter.Stop)

	api := API{
		Guard:      middleware.JWTAuth(middleware.JWTMiddlewareConfig{Guard: auth.NewGuard(jwt, tokens, revoked, log), Metrics: registry}),
		LoginLimit: middleware.RateLimit(loginLimiter),
		Resources:  handler.NewResourceHandler(registry),
		Billing:    billingRes,
		Inbox:      appinbox.NewMessageResource(teams, messages),
		Teams: handler.NewTeamHandler(handler.TeamHandlerConfig{
			Auth: apptenancy.NewAuthService(teamRepo, tokens, auth.NewBcryptHasher(bcrypt.MinCost), jwt, revoked,
				apptenancy.AuthServiceConfig{SessionTTL: time.Hour}, log),
			Profiles:     apptenancy.NewProfileService(teamRepo, storage.NewMemoryImageStore(), log),
			Teams:        teams,
			Metrics:      registry,
			MaxImageSize: 1 << 10,
		}),
		Messages: handler.NewMessageHandler(appinbox.NewService(teamRepo, messages, log), registry),
		Charts:   handler.NewChartsHandler(appbilling.NewChartsService(persistence.NewGormChartsSource(&persistence.Database{DB: db}))),
		Health:   handler.NewHealthHandler("test", map[string]handler.Pinger{"database": sqlDB}),
		Metrics:  registry.Handler(),
	}

	engine := gin.New()
	engine.Use(middleware.RequestID(), logger.GinMiddleware(log), middleware.Metrics(registry))
	NewRouter(engine).Register(api.Groups()...).Setup()
	return engine
}

type session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func register(t *testing.T, api *gin.Engine, username string) string {
	t.Helper()
	w := testutil.Do(t, api, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/v1/teams/register",
		Body:   map[string]string{"name": "Team " + username, "username": username, "password": "password123"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := testutil.DecodeData[session](t, w)
	require.NotEmpty(t, s.Token)
	return s.Token
}

type idView struct {
	ID string `json:"id"`
}

func create(t *testing.T, api *gin.Engine, token, path string, body any) string {
	t.Helper()
	w := testutil.Do(t, api, testutil.Request{Method: http.MethodPut, Path: path, Body: body, Token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[idView](t, w).ID
}

func TestAPI_TeamSessions(t *testing.T) {
	api := newTestAPI(t)
	token := register(t, api, "acme")

	w := testutil.Do(t, api, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/v1/teams/register",
		Body:   map[string]string{"name": "Other", "username": "acme", "password": "password123"},
	})
	testutil.AssertError(t, w, http.StatusConflict, "ERR_USERNAME_TAKEN")

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/v1/teams/register",
		Body:   map[string]string{"name": "Short", "username": "shorty", "password": "short"},
	})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte("acme:password123"))
	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: "/api/v1/teams/login", Headers: map[string]string{"Authorization": basic}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, testutil.DecodeData[session](t, w).Token)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/teams/login",
		Body:   map[string]string{"username": "acme", "password": "wrong-password"},
	})
	testutil.AssertError(t, w, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS")

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/teams/login",
		Body:   map[string]string{"username": "nobody", "password": "wrong-password"},
	})
	testutil.AssertError(t, w, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/profile", Token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", testutil.DecodeData[tenancy.Profile](t, w).Username)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: "/api/v1/teams/logout", Token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/profile", Token: token})
	testutil.AssertError(t, w, http.StatusUnauthorized, "ERR_TOKEN_REVOKED")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/profile"})
	testutil.AssertError(t, w, http.StatusUnauthorized, "ERR_UNAUTHORIZED")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/profile", Token: "not.a.jwt"})
	testutil.AssertError(t, w, http.StatusUnauthorized, "ERR_TOKEN_INVALID")
}

func TestAPI_Profile(t *testing.T) {
	api := newTestAPI(t)
	token := register(t, api, "acme")

	w := testutil.Do(t, api, testutil.Request{
		Method: http.MethodPatch,
		Path:   "/api/v1/teams/profile",
		Token:  token,
		Body:   map[string]any{"city": "Lyon", "fields": []string{"SIRET 123"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := testutil.DecodeData[tenancy.Profile](t, w)
	assert.Equal(t, "Lyon", profile.City)
	assert.Equal(t, "Team acme", profile.Name)
	assert.Equal(t, []string{"SIRET 123"}, profile.Fields)
	assert.False(t, profile.HasImage)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPut, Path: "/api/v1/teams/profile/image", Token: token, Body: pngImage})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, testutil.DecodeData[tenancy.Profile](t, w).HasImage)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/" + profile.ID.String() + "/image"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngImage, w.Body.Bytes())

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPut, Path: "/api/v1/teams/profile/image", Token: token, Body: make([]byte, 2<<10)})
	testutil.AssertError(t, w, http.StatusRequestEntityTooLarge, "ERR_PAYLOAD_TOO_LARGE")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/not-a-uuid/image"})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_INVALID_ID")
}

func TestAPI_Billing(t *testing.T) {
	api := newTestAPI(t)
	token := register(t, api, "acme")
	intruder := register(t, api, "intruder")

	customer := create(t, api, token, "/api/v1/customers", map[string]string{"first_name": "Ada", "company": "Analytical"})
	address := create(t, api, token, "/api/v1/customers/"+customer+"/addresses", map[string]string{"line": "12 Row", "zip": "1815", "city": "London"})
	invoice := create(t, api, token, "/api/v1/invoices", map[string]any{
		"customer_id": customer,
		"address_id":  address,
		"type":        "invoice",
		"status":      "waiting",
		"promotion":   10,
		"deposit":     "5",
	})
	create(t, api, token, "/api/v1/invoices/"+invoice+"/fields", map[string]any{"name": "Design", "vat": 20, "price": "100"})

	w := testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/invoices/" + invoice, Token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := testutil.DecodeData[billing.InvoiceView](t, w)
	require.Len(t, view.Fields, 1)
	assert.True(t, view.Prices.Total.Equal(decimal.NewFromInt(120)), view.Prices.Total.String())
	assert.True(t, view.Prices.Final.Equal(decimal.NewFromInt(103)), view.Prices.Final.String())

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/customers/" + customer, Token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	owner := testutil.DecodeData[billing.CustomerView](t, w)
	assert.Len(t, owner.Addresses, 1)
	require.Len(t, owner.Invoices, 1)
	require.Len(t, owner.Invoices[0].Fields, 1)
	assert.True(t, owner.Invoices[0].Prices.Final.Equal(decimal.NewFromInt(103)), owner.Invoices[0].Prices.Final.String())

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/customers?page_size=10", Token: token})
	require.Equal(t, http.StatusOK, w.Code)
	env := testutil.Decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/customers?order_by=password", Token: token})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_INVALID_SORT")

	for _, req := range []testutil.Request{
		{Method: http.MethodGet, Path: "/api/v1/customers/" + customer},
		{Method: http.MethodPatch, Path: "/api/v1/customers/" + customer, Body: map[string]string{"company": "Taken"}},
		{Method: http.MethodDelete, Path: "/api/v1/invoices/" + invoice},
		{Method: http.MethodGet, Path: "/api/v1/customers/" + customer + "/addresses"},
	} {
		req.Token = intruder
		w = testutil.Do(t, api, req)
		testutil.AssertError(t, w, http.StatusForbidden, "ERR_NOT_OWNER")
	}

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/customers", Token: intruder})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), testutil.Decode(t, w).Meta.Total)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPut, Path: "/api/v1/customers", Token: token, Body: map[string]string{"first_name": "Nobody"}})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_INVALID_CUSTOMER")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodDelete, Path: "/api/v1/customers/" + customer + "/addresses/" + address, Token: token})
	testutil.AssertError(t, w, http.StatusConflict, "ERR_CONFLICT")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPatch, Path: "/api/v1/customers/" + customer + "/addresses/" + address, Token: token, Body: map[string]string{"city": "Paris"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/charts", Token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	charts := testutil.DecodeData[billing.Charts](t, w)
	assert.Equal(t, int64(1), charts.Customers)
	assert.Equal(t, 1, charts.Invoices.Waiting)
	assert.Len(t, charts.Daily, 14)

	other := create(t, api, token, "/api/v1/customers", map[string]string{"last_name": "Lovelace"})
	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPut, Path: "/api/v1/invoices", Token: token, Body: map[string]any{
		"customer_id": other,
		"address_id":  address,
		"type":        "invoice",
		"status":      "waiting",
	}})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_ADDRESS_NOT_OF_CUSTOMER")
	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPatch, Path: "/api/v1/invoices/" + invoice, Token: token, Body: map[string]string{"customer_id": other}})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_ADDRESS_NOT_OF_CUSTOMER")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodDelete, Path: "/api/v1/invoices/" + invoice, Token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/invoices/" + invoice, Token: token})
	testutil.AssertError(t, w, http.StatusNotFound, "ERR_NOT_FOUND")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodDelete, Path: "/api/v1/customers/" + customer, Token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPI_Messages(t *testing.T) {
	api := newTestAPI(t)
	token := register(t, api, "acme")

	w := testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/teams/profile", Token: token})
	team := testutil.DecodeData[tenancy.Profile](t, w)

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/v1/messages",
		Body:   map[string]string{"team_id": team.ID.String(), "email": "ada@example.com", "text": "Hello"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	message := testutil.DecodeData[idView](t, w).ID

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/v1/messages",
		Body:   map[string]string{"team_id": "00000000-0000-0000-0000-00000000beef", "text": "Hello"},
	})
	testutil.AssertError(t, w, http.StatusBadRequest, "ERR_UNKNOWN_TEAM")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/messages", Token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), testutil.Decode(t, w).Meta.Total)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/messages"})
	testutil.AssertError(t, w, http.StatusUnauthorized, "ERR_UNAUTHORIZED")

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodDelete, Path: "/api/v1/messages/" + message, Token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPI_System(t *testing.T) {
	api := newTestAPI(t)

	w := testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/health"})
	require.Equal(t, http.StatusOK, w.Code)
	health := testutil.DecodeData[handler.HealthResponse](t, w)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodGet, Path: "/api/v1/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `go_sql_open_connections{db_name="sqlite"}`)
}
