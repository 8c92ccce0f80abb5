package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/metrics"
	"github.com/Spok95/school-admin-api/internal/models"
)

type claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int64, role models.Role) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	})
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

// authMiddleware — Bearer-токен обязателен; id и роль кладём в контекст.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			respondUnauthorized(w, "требуется токен")
			return
		}
		raw := strings.TrimPrefix(h, "Bearer ")

		var c claims
		token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			respondUnauthorized(w, "токен недействителен или истёк")
			return
		}
		userID, err := strconv.ParseInt(c.Subject, 10, 64)
		if err != nil {
			respondUnauthorized(w, "токен недействителен или истёк")
			return
		}

		ctx := ctxutil.WithUserID(r.Context(), userID)
		ctx = ctxutil.WithRole(ctx, c.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole — пускаем только перечисленные роли.
func requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := ctxutil.Role(r.Context())
			if !ok {
				respondUnauthorized(w, "требуется токен")
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondErr(w, ErrForbidden)
		})
	}
}

// statusWriter — перехват кода ответа для метрик.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(sw.status)).Inc()
		s.log.Debugw("http", "method", r.Method, "path", r.URL.Path, "status", sw.status, "dur", time.Since(start))
	})
}
