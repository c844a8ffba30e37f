package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"setpass/internal/app/deps"
	"setpass/internal/app/services"
	"setpass/internal/config"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/logging"
	"setpass/internal/core/domain/token"
	uow "setpass/internal/core/domain/unit_of_work"
	"setpass/internal/implementations/metrics"
	passwordsealer "setpass/internal/implementations/password_sealer"
	pinhasher "setpass/internal/implementations/pin_hasher"
	tokengenerator "setpass/internal/implementations/token_generator"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

const (
	ADMIN_TOKEN = "test-admin-token"
	SECRET      = "test-secret"
	VALID_FOR   = time.Hour
)

var IssuedAt = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

type stubPinger struct{}

func (stubPinger) Ping(ctx context.Context) error {
	return nil
}

type testSuite struct {
	suite.Suite
	deps            *deps.Deps
	uow             *uow.FakeUnitOfWork
	passwordChanger *identity.FakePasswordChanger
	now             time.Time
	lock            sync.Mutex
	router          http.Handler
}

func (suite *testSuite) SetupTest() {
	suite.setup(config.Config{
		AllowedOrigins:         []string{"*"},
		AdminAuthEnabled:       true,
		RequirePin:             true,
		TokenExpirationSeconds: int(VALID_FOR.Seconds()),
	})
}

func (suite *testSuite) setup(cfg config.Config) {
	suite.uow = uow.NewFakeUnitOfWork()
	suite.passwordChanger = identity.NewFakePasswordChanger()
	suite.now = IssuedAt
	registry := prometheus.NewRegistry()

	suite.deps = &deps.Deps{
		Config:              &cfg,
		Logger:              logging.NewFakeLogger(),
		HealthChecker:       stubPinger{},
		Registry:            registry,
		Now:                 suite.clock,
		UnitOfWork:          suite.uow,
		TokenGenerator:      tokengenerator.NewUUID(),
		PinHasher:           pinhasher.NewHMAC(SECRET),
		PasswordSealer:      passwordsealer.NewSecretbox(SECRET),
		PasswordChanger:     suite.passwordChanger,
		AdminTokenValidator: identity.NewFakeAdminTokenValidator(ADMIN_TOKEN),
		MetricsRecorder:     metrics.NewPrometheus(registry),
	}
	suite.router = NewRouter(suite.deps, services.InitServices(suite.deps))
}

func (suite *testSuite) clock() time.Time {
	suite.lock.Lock()
	defer suite.lock.Unlock()
	return suite.now
}

func (suite *testSuite) advance(d time.Duration) {
	suite.lock.Lock()
	defer suite.lock.Unlock()
	suite.now = suite.now.Add(d)
}

func TestApp(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) issue(id string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/token/"+id, strings.NewReader(body))
	req.Header.Set("X-Auth-Token", ADMIN_TOKEN)
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	return rw
}

func (s *testSuite) issueToken(id string, body string) string {
	rw := s.issue(id, body)
	s.Require().Equal(http.StatusOK, rw.Code, rw.Body.String())
	return rw.Body.String()
}

func (s *testSuite) redeem(t string, pin string, password string) *httptest.ResponseRecorder {
	form := url.Values{"pin": {pin}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/?token="+url.QueryEscape(t), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	return rw
}

func (s *testSuite) TestAliceRedeemsOnce() {
	t1 := s.issueToken("alice", `{"pin": "1234", "password": "old-password"}`)

	rw := s.redeem(t1, "1234", "newpw")
	s.Equal(http.StatusOK, rw.Code)
	s.Equal(
		[]identity.PasswordChange{{Identity: "alice", OldPassword: "old-password", NewPassword: "newpw"}},
		s.passwordChanger.Changes,
	)

	rw = s.redeem(t1, "1234", "again")
	s.Equal(http.StatusNotFound, rw.Code)
	s.Equal("Token not found", rw.Body.String())
	s.Equal(1, s.passwordChanger.ChangeCount())
}

func (s *testSuite) TestBobTokenExpires() {
	t := s.issueToken("bob", `{"pin": "1111", "password": "old-password"}`)
	s.advance(VALID_FOR + time.Second)

	rw := s.redeem(t, "1111", "x")
	s.Equal(http.StatusForbidden, rw.Code)
	s.Equal("Token expired", rw.Body.String())
	s.Equal(0, s.passwordChanger.ChangeCount())

	rw = s.redeem(t, "1111", "x")
	s.Equal(http.StatusForbidden, rw.Code)

	renewed := s.issueToken("bob", `{}`)
	s.NotEqual(t, renewed)
	rw = s.redeem(renewed, "1111", "x")
	s.Equal(http.StatusOK, rw.Code)
}

func (s *testSuite) TestBobTokenExpiresAndIsDeleted() {
	s.setup(config.Config{
		AllowedOrigins:         []string{"*"},
		AdminAuthEnabled:       true,
		RequirePin:             true,
		TokenExpirationSeconds: int(VALID_FOR.Seconds()),
		DeleteExpiredOnRedeem:  true,
	})
	t := s.issueToken("bob", `{"pin": "1111", "password": "old-password"}`)
	s.advance(VALID_FOR + time.Second)

	rw := s.redeem(t, "1111", "x")
	s.Equal(http.StatusForbidden, rw.Code)

	rw = s.redeem(t, "1111", "x")
	s.Equal(http.StatusNotFound, rw.Code)
}

func (s *testSuite) TestCarolRetriesWithCorrectPin() {
	t := s.issueToken("carol", `{"pin": "1234", "password": "old-password"}`)

	rw := s.redeem(t, "0000", "newpw")
	s.Equal(http.StatusForbidden, rw.Code)
	s.Equal("Wrong pin", rw.Body.String())

	rw = s.redeem(t, "1234", "newpw")
	s.Equal(http.StatusOK, rw.Code)
}

func (s *testSuite) TestReissueInvalidatesPreviousToken() {
	first := s.issueToken("dave", `{"pin": "1234", "password": "old-password"}`)
	second := s.issueToken("dave", `{"pin": "4321"}`)
	s.NotEqual(first, second)

	rw := s.redeem(first, "1234", "newpw")
	s.Equal(http.StatusNotFound, rw.Code)

	rw = s.redeem(second, "1234", "newpw")
	s.Equal(http.StatusForbidden, rw.Code)

	rw = s.redeem(second, "4321", "newpw")
	s.Equal(http.StatusOK, rw.Code)
	s.Equal(token.RawPassword("old-password"), s.passwordChanger.Changes[0].OldPassword)
}

func (s *testSuite) TestProviderErrorKeepsToken() {
	t := s.issueToken("erin", `{"pin": "1234", "password": "old-password"}`)
	s.passwordChanger.ReturnError = &identity.ProviderError{Message: "Invalid password"}

	rw := s.redeem(t, "1234", "newpw")
	s.Equal(http.StatusInternalServerError, rw.Code)
	s.Equal("Invalid password", rw.Body.String())

	s.passwordChanger.ReturnError = nil
	rw = s.redeem(t, "1234", "newpw")
	s.Equal(http.StatusOK, rw.Code)
}

func (s *testSuite) TestConcurrentRedemptions() {
	t := s.issueToken("frank", `{"pin": "1234", "password": "old-password"}`)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	wg.Add(len(codes))
	for i := range codes {
		i := i
		go func() {
			defer wg.Done()
			codes[i] = s.redeem(t, "1234", "newpw").Code
		}()
	}
	wg.Wait()

	s.ElementsMatch([]int{http.StatusOK, http.StatusNotFound}, codes)
	s.Equal(1, s.passwordChanger.ChangeCount())
}

func (s *testSuite) TestIssueRequiresAdminToken() {
	req := httptest.NewRequest(http.MethodPut, "/token/alice", strings.NewReader(`{"pin": "1234", "password": "p"}`))
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	s.Equal(http.StatusUnauthorized, rw.Code)

	req = httptest.NewRequest(http.MethodPut, "/token/alice", strings.NewReader(`{"pin": "1234", "password": "p"}`))
	req.Header.Set("X-Auth-Token", "not-an-admin")
	rw = httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	s.Equal(http.StatusForbidden, rw.Code)
}

func (s *testSuite) TestIssueWithoutAdminAuthentication() {
	s.setup(config.Config{AllowedOrigins: []string{"*"}, RequirePin: true})

	req := httptest.NewRequest(http.MethodPut, "/token/alice", strings.NewReader(`{"pin": "1234", "password": "p"}`))
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	s.Equal(http.StatusOK, rw.Code)
}

func (s *testSuite) TestViewForm() {
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusNotFound, rw.Code)

	rw = httptest.NewRecorder()
	s.router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/?token=abc", nil))
	s.Equal(http.StatusOK, rw.Code)
}

func (s *testSuite) TestHealthzAndMetrics() {
	t := s.issueToken("grace", `{"pin": "1234", "password": "old-password"}`)
	s.redeem(t, "0000", "newpw")

	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rw.Code)

	rw = httptest.NewRecorder()
	s.router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rw.Code)
	s.Contains(rw.Body.String(), `setpass_operations_total{operation="issue_token",outcome="success"} 1`)
	s.Contains(rw.Body.String(), `setpass_operations_total{operation="redeem_token",outcome="wrong_pin"} 1`)
}
