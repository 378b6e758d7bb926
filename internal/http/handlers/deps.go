package handlers

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"collegetour/internal/cache"
	"collegetour/internal/domain"
	"collegetour/internal/http/middleware"
	"collegetour/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the shared resources handlers build their services from.
type Deps struct {
	DB              *sql.DB
	Cache           *cache.BusCache
	JWTSecret       []byte
	JWTTTL          time.Duration
	CookieSecure    bool
	MaxMainPackages int
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure installs the dependencies used by every handler.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func current() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

func authService(c *gin.Context) services.AuthService {
	d := current()
	return services.AuthService{DB: d.DB, Secret: d.JWTSecret, TTL: d.JWTTTL, RequestID: middleware.GetRequestID(c)}
}

// TokenParser validates session tokens with the configured secret and
// reloads the account they name.
func TokenParser() middleware.TokenParser {
	return func(ctx context.Context, raw string) (domain.RequestContext, error) {
		d := current()
		return services.AuthService{DB: d.DB, Secret: d.JWTSecret}.Authenticate(ctx, raw)
	}
}

func reservationService(c *gin.Context) services.ReservationService {
	d := current()
	return services.ReservationService{DB: d.DB, Cache: d.Cache, RequestID: middleware.GetRequestID(c)}
}

func adminService(c *gin.Context) services.AdminService {
	d := current()
	return services.AdminService{DB: d.DB, Cache: d.Cache, MaxMainPackages: d.MaxMainPackages, RequestID: middleware.GetRequestID(c)}
}

func receiptService(c *gin.Context) services.ReceiptService {
	return services.ReceiptService{DB: current().DB, RequestID: middleware.GetRequestID(c)}
}

func exportService(c *gin.Context) services.ExportService {
	return services.ExportService{DB: current().DB, RequestID: middleware.GetRequestID(c)}
}
