package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/xid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khoahotran/folio/internal/application/service"
	identityUC "github.com/khoahotran/folio/internal/application/usecase/identity"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	GinContextKeyUserID    = "userID"
	GinContextKeyUser      = "user"
	GinContextKeyRequestID = "requestID"

	HeaderRequestID = "X-Request-ID"
)

// AuthMiddleware verifies the bearer token and resolves the caller to a
// local user, provisioning it on first sight.
func AuthMiddleware(verifier service.IdentityVerifier, resolveUC *identityUC.ResolveUserUseCase, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, apperror.NewUnauthorized("authorization header is required", nil))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			abortWith(c, apperror.NewUnauthorized("invalid token format", nil))
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("Rejected bearer token", zap.Error(err))
			abortWith(c, apperror.NewUnauthorized("invalid or expired token", err))
			return
		}

		output, err := resolveUC.Execute(c.Request.Context(), identityUC.ResolveUserInput{Identity: identity})
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(GinContextKeyUserID, output.User.ID)
		c.Set(GinContextKeyUser, output.User)

		c.Next()
	}
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return userUUID, true
}

func GetUserFromGinContext(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(GinContextKeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok && u != nil
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorMiddleware renders the last error pushed with c.Error. Internal
// causes are logged and never sent to the client.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unhandled error", err)
		}
		status := apperror.ToHTTPStatus(appErr)

		fields := []zap.Field{
			zap.String("request_id", c.GetString(GinContextKeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
		}
		if status >= http.StatusInternalServerError {
			log.Error(appErr.Details, appErr, fields...)
		} else {
			log.Warn(appErr.Message, append(fields, zap.String("details", appErr.Details))...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, appErr.ToJSON())
	}
}

// RequestIDMiddleware keeps an incoming X-Request-ID or mints one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = xid.New().String()
		}
		c.Set(GinContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("HTTP request",
			zap.String("request_id", c.GetString(GinContextKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func CORSMiddleware(origins []string) gin.HandlerFunc {
	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin", HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return func(c *gin.Context) {
		handler.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Abort()
			return
		}
		c.Next()
	}
}

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter hands out one token bucket per caller: the user id when the
// route is authenticated, the client IP otherwise.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if kl, ok := rl.limiters[key]; ok {
		kl.lastAccess = now
		return kl.limiter
	}

	// Sweep idle buckets while we hold the lock anyway.
	for k, kl := range rl.limiters {
		if now.Sub(kl.lastAccess) > rl.idle {
			delete(rl.limiters, k)
		}
	}

	l := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters[key] = &keyedLimiter{limiter: l, lastAccess: now}
	return l
}

func (rl *RateLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserIDFromGinContext(c); ok {
			key = userID.String()
		}

		if !rl.get(scope + ":" + key).Allow() {
			retryAfter := 1
			if rl.rps > 0 {
				retryAfter = int(math.Ceil(1 / float64(rl.rps)))
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWith(c, apperror.NewTooManyRequests(scope+" rate limit exceeded"))
			return
		}
		c.Next()
	}
}
