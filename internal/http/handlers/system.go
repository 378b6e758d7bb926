package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"collegetour/internal/cache"
	intdb "collegetour/internal/db"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "college tour backend running"})
}

// DBCheck pings MySQL and, when configured, Redis.
func DBCheck(c *gin.Context) {
	d := current()
	if d.DB == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not connected"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	var count int
	if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed: " + err.Error()})
		return
	}
	tables := gin.H{}
	missing := 0
	for _, name := range intdb.Tables() {
		ok := intdb.HasTable(d.DB, name)
		if !ok {
			missing++
		}
		tables[name] = ok
	}
	out := gin.H{"message": "database connection OK", "users_in_db": count, "tables": tables, "cache": cacheStatus(ctx, d.Cache)}
	if missing > 0 {
		out["message"] = "database reachable, schema incomplete"
	}
	c.JSON(http.StatusOK, out)
}

func cacheStatus(ctx context.Context, bc *cache.BusCache) string {
	if !bc.Enabled() {
		return "disabled"
	}
	if err := bc.Ping(ctx); err != nil {
		return "unreachable: " + err.Error()
	}
	return "ok"
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
