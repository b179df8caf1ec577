package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/khoahotran/folio/internal/application/service"
	identityUC "github.com/khoahotran/folio/internal/application/usecase/identity"
	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	previewUC "github.com/khoahotran/folio/internal/application/usecase/preview"
	"github.com/khoahotran/folio/internal/testutil"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const resumeURL = "https://cdn.test/raw/portfolios/resume.pdf"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

type RouterTestSuite struct {
	suite.Suite
	router  *gin.Engine
	jwt     *auth.JWTService
	webhook *svix.Webhook

	portfolios *testutil.PortfolioRepo
	users      *testutil.UserRepo
	views      *testutil.ViewRecorder
	uploader   *testutil.Uploader
	preview    *testutil.PreviewFetcher
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	s.jwt = auth.NewJWTService("router-test-secret", time.Hour)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("router-test-webhook-signing-key!"))
	wh, err := svix.NewWebhook(secret)
	s.Require().NoError(err)
	s.webhook = wh

	s.portfolios = testutil.NewPortfolioRepo()
	s.users = testutil.NewUserRepo()
	s.views = &testutil.ViewRecorder{}
	s.uploader = &testutil.Uploader{}
	s.preview = &testutil.PreviewFetcher{Fn: func(_ context.Context, url string) (*service.LinkPreview, error) {
		return &service.LinkPreview{URL: url, Title: "Example"}, nil
	}}
	cache := testutil.NewCache()
	rec := testutil.NewMetrics()

	mutator := portfolioUC.NewMutator(s.portfolios, cache, nil, rec, log)
	allocator := portfolioUC.NewSlugAllocator(s.portfolios)
	create := portfolioUC.NewCreatePortfolioUseCase(s.portfolios, allocator, mutator, log)

	portfolioHandler := NewPortfolioHandler(
		portfolioUC.NewGetMyPortfolioUseCase(s.portfolios),
		create,
		portfolioUC.NewDeletePortfolioUseCase(s.portfolios, mutator, log),
		portfolioUC.NewExportPortfolioUseCase(s.portfolios),
		portfolioUC.NewUpdateProfileUseCase(s.portfolios, allocator, mutator, create),
		portfolioUC.NewContentUseCase(mutator),
		portfolioUC.NewSettingsUseCase(mutator),
		allocator,
		log,
	)
	publicHandler := NewPublicHandler(
		portfolioUC.NewGetPublicPortfolioUseCase(s.portfolios, s.users, cache, s.views, rec, log),
		portfolioUC.NewDownloadResumeUseCase(s.portfolios, testutil.FileFetcher{Files: map[string][]byte{
			resumeURL: []byte("%PDF-1.4 resume"),
		}}),
		log,
	)

	s.router = NewRouter(RouterConfig{
		Logger:      log,
		Verifier:    s.jwt,
		ResolveUser: identityUC.NewResolveUserUseCase(s.users, log),
		CORSOrigins: []string{"http://localhost:3000"},
		RateLimiter: NewRateLimiter(0.001, 3),
		Portfolio:   portfolioHandler,
		Public:      publicHandler,
		Upload:      NewUploadHandler(mediaUC.NewUploadAssetUseCase(s.uploader, rec, log), log),
		Preview:     NewPreviewHandler(previewUC.NewFetchPreviewUseCase(s.preview, time.Second, rec, log), log),
		Identity:    NewIdentityHandler(s.webhook, identityUC.NewSyncUserUseCase(s.users, log), log),
	})
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) token(externalID string) string {
	tok, err := s.jwt.GenerateToken(auth.Identity{ExternalID: externalID, Email: externalID + "@example.com", DisplayName: "Test " + externalID})
	s.Require().NoError(err)
	return tok
}

func (s *RouterTestSuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *RouterTestSuite) publishedPortfolio(externalID, slug string) string {
	tok := s.token(externalID)
	w, _ := s.do(http.MethodPut, "/api/portfolio/profile", tok, gin.H{
		"slug":        slug,
		"displayName": "Ada Lovelace",
		"headline":    "Engineer",
		"skills":      []string{"Go", "SQL"},
		"socialLinks": gin.H{"github": "https://github.com/ada"},
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/api/portfolio/publish", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	return tok
}

func (s *RouterTestSuite) TestHealth() {
	w, _ := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(HeaderRequestID))
}

func (s *RouterTestSuite) TestAuthRequired() {
	w, env := s.do(http.MethodGet, "/api/portfolio", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)
	s.NotEmpty(env.Error)

	w, _ = s.do(http.MethodGet, "/api/portfolio", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestMeProvisionsUserOnce() {
	tok := s.token("user_me")

	for i := 0; i < 2; i++ {
		w, env := s.do(http.MethodGet, "/api/me", tok, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		var u UserDTO
		s.Require().NoError(json.Unmarshal(env.Data, &u))
		s.Equal("user_me@example.com", u.Email)
		s.Equal("Test user_me", u.Name)
	}
	s.Equal(1, s.users.Count())
}

func (s *RouterTestSuite) TestPortfolioNotFoundBeforeFirstSave() {
	w, env := s.do(http.MethodGet, "/api/portfolio", s.token("user_new"), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.False(env.Success)
}

func (s *RouterTestSuite) TestProfileCreatesThenUpdates() {
	tok := s.token("user_a")

	w, env := s.do(http.MethodPut, "/api/portfolio/profile", tok, gin.H{"slug": "Ada-Dev", "displayName": "Ada"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var p PortfolioDTO
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Equal("ada-dev", p.Slug)
	s.False(p.IsPublished)

	w, env = s.do(http.MethodPut, "/api/portfolio/profile", tok, gin.H{"slug": "ada-dev", "displayName": "Ada L.", "bio": "Hello"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Equal("Ada L.", p.Content.DisplayName)
	s.Equal(1, s.portfolios.Count())
}

func (s *RouterTestSuite) TestSlugTakenIsConflictOnSlugField() {
	s.publishedPortfolio("user_a", "taken")

	w, env := s.do(http.MethodPut, "/api/portfolio/profile", s.token("user_b"), gin.H{"slug": "taken", "displayName": "Bob"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("slug", env.Field)
	s.Equal(1, s.portfolios.Count())
}

func (s *RouterTestSuite) TestInvalidSlugIsValidationError() {
	w, env := s.do(http.MethodPut, "/api/portfolio/profile", s.token("user_a"), gin.H{"slug": "no", "displayName": "Ada"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("slug", env.Field)
}

func (s *RouterTestSuite) TestMalformedJSON() {
	req := httptest.NewRequest(http.MethodPut, "/api/portfolio/theme", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token("user_a"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestSlugAvailability() {
	s.publishedPortfolio("user_a", "claimed")
	tok := s.token("user_b")

	w, env := s.do(http.MethodGet, "/api/portfolio/slug-availability?slug=claimed", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var out portfolioUC.CheckSlugOutput
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.False(out.Available)

	_, env = s.do(http.MethodGet, "/api/portfolio/slug-availability?slug=free-one", tok, nil)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.True(out.Available)

	_, env = s.do(http.MethodGet, "/api/portfolio/slug-availability?slug=x", tok, nil)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.False(out.Available)
	s.NotEmpty(out.Reason)

	// burst of 3 is spent
	w, _ = s.do(http.MethodGet, "/api/portfolio/slug-availability?slug=another", tok, nil)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))
}

func (s *RouterTestSuite) TestPublicPageHonoursVisibility() {
	tok := s.publishedPortfolio("user_a", "ada")

	w, _ := s.do(http.MethodPut, "/api/portfolio/visibility", tok, gin.H{"showSkills": false})
	s.Require().Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPut, "/api/portfolio/hidden-items", tok, gin.H{"hiddenItems": gin.H{"socialLinks": []string{"github"}}})
	s.Require().Equal(http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/p/ada", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var view service.PublicPortfolio
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal("ada", view.Slug)
	s.Equal("Ada Lovelace", view.Content.DisplayName)
	s.Empty(view.Content.Skills)
	s.Empty(view.Content.SocialLinks)
	s.Equal(1, s.views.Count())

	// the owner still sees everything
	w, env = s.do(http.MethodGet, "/api/portfolio", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var mine PortfolioDTO
	s.Require().NoError(json.Unmarshal(env.Data, &mine))
	s.Equal([]string{"Go", "SQL"}, mine.Content.Skills)
}

func (s *RouterTestSuite) TestUnpublishedPageIsNotFound() {
	tok := s.publishedPortfolio("user_a", "ada")
	w, _ := s.do(http.MethodPost, "/api/portfolio/publish", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/p/ada", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.False(env.Success)
	s.Equal(0, s.views.Count())
}

func (s *RouterTestSuite) TestExportIsAttachment() {
	tok := s.publishedPortfolio("user_a", "ada")

	w, _ := s.do(http.MethodGet, "/api/portfolio/export", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(`attachment; filename="portfolio-ada-export.json"`, w.Header().Get("Content-Disposition"))

	var doc portfolioUC.ExportDocument
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &doc))
	s.Equal("ada", doc.Portfolio.Slug)
	s.False(doc.ExportedAt.IsZero())
}

func (s *RouterTestSuite) TestResumeDownload() {
	tok := s.publishedPortfolio("user_a", "ada")

	w, _ := s.do(http.MethodGet, "/api/p/ada/resume", "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPut, "/api/portfolio/resume", tok, gin.H{"url": resumeURL})
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/p/ada/resume", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(`attachment; filename="resume.pdf"`, w.Header().Get("Content-Disposition"))
	s.Equal("application/pdf", w.Header().Get("Content-Type"))
	s.Equal("%PDF-1.4 resume", w.Body.String())
}

func (s *RouterTestSuite) TestDeletePortfolio() {
	tok := s.publishedPortfolio("user_a", "ada")

	w, _ := s.do(http.MethodDelete, "/api/portfolio", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(0, s.portfolios.Count())

	w, _ = s.do(http.MethodGet, "/api/p/ada", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(1, s.users.Count())
}

func (s *RouterTestSuite) upload(kind string, content []byte) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "asset.bin")
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/"+kind, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token("user_up"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *RouterTestSuite) TestUploadAvatar() {
	w, env := s.upload("avatar", pngBytes)
	s.Require().Equal(http.StatusCreated, w.Code)

	var out mediaUC.UploadAssetOutput
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Equal("image/png", out.ContentType)
	s.Contains(out.URL, "/avatar/")
	s.Len(s.uploader.Calls, 1)
}

func (s *RouterTestSuite) TestUploadRejections() {
	w, _ := s.upload("banner", pngBytes)
	s.Equal(http.StatusBadRequest, w.Code)

	w, env := s.upload("resume", pngBytes)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("file", env.Field)
	s.Empty(s.uploader.Calls)
}

func (s *RouterTestSuite) TestLinkPreview() {
	tok := s.token("user_a")

	w, env := s.do(http.MethodPost, "/api/link-preview", tok, gin.H{"url": "https://example.com/post"})
	s.Require().Equal(http.StatusOK, w.Code)
	var p service.LinkPreview
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Equal("Example", p.Title)

	w, env = s.do(http.MethodPost, "/api/link-preview", tok, gin.H{"url": "ftp://example.com"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("url", env.Field)

	s.preview.Fn = func(context.Context, string) (*service.LinkPreview, error) {
		return nil, errors.New("connection refused")
	}
	w, env = s.do(http.MethodPost, "/api/link-preview", tok, gin.H{"url": "https://down.example.com"})
	s.Require().Equal(http.StatusOK, w.Code)
	p = service.LinkPreview{}
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Equal("https://down.example.com", p.URL)
	s.Empty(p.Title)
}

func (s *RouterTestSuite) sendWebhook(payload []byte, sign bool) *httptest.ResponseRecorder {
	msgID := "msg_" + time.Now().Format("150405.000000")
	now := time.Now()

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	if sign {
		sig, err := s.webhook.Sign(msgID, now, payload)
		s.Require().NoError(err)
		req.Header.Set("svix-signature", sig)
	} else {
		req.Header.Set("svix-signature", "v1,bm90LWEtcmVhbC1zaWduYXR1cmU=")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) TestIdentityWebhookLifecycle() {
	created := []byte(`{"type":"user.created","data":{"id":"user_wh","email_addresses":[{"email_address":"wh@example.com"}],"first_name":"Grace","last_name":"Hopper","image_url":"https://img.example.com/g.png"}}`)
	w := s.sendWebhook(created, true)
	s.Require().Equal(http.StatusCreated, w.Code)

	u, err := s.users.FindByExternalID(context.Background(), "user_wh")
	s.Require().NoError(err)
	s.Equal("Grace Hopper", u.Name)
	s.Equal("wh@example.com", u.Email)

	updated := []byte(`{"type":"user.updated","data":{"id":"user_wh","email_addresses":[],"first_name":null,"last_name":null}}`)
	w = s.sendWebhook(updated, true)
	s.Require().Equal(http.StatusOK, w.Code)
	u, err = s.users.FindByExternalID(context.Background(), "user_wh")
	s.Require().NoError(err)
	s.Equal("User", u.Name)

	deleted := []byte(`{"type":"user.deleted","data":{"id":"user_wh"}}`)
	w = s.sendWebhook(deleted, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(0, s.users.Count())
}

func (s *RouterTestSuite) TestIdentityWebhookRejectsBadSignature() {
	payload := []byte(`{"type":"user.created","data":{"id":"user_forged"}}`)
	w := s.sendWebhook(payload, false)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(0, s.users.Count())

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewReader(payload))
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal("http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
