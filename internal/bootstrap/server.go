package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strandline/ferrybooking/api"
	"github.com/strandline/ferrybooking/config"
	"github.com/strandline/ferrybooking/internal/auth"
	"github.com/strandline/ferrybooking/internal/domain"
	"github.com/strandline/ferrybooking/internal/service/booking"
	"github.com/strandline/ferrybooking/internal/service/sailings"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, sailingSvc sailings.SailingUseCase, bookingSvc booking.BookingUseCase) error {
	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger())

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(cfg.Auth.JWTSecret))

	api.NewSailingHandler(sailingSvc).Register(v1.Group("/sailings"))
	api.NewBookingHandler(bookingSvc).Register(v1.Group("/bookings"))
	api.NewAdminHandler(bookingSvc).Register(v1.Group("/admin", auth.RequireRole(domain.RoleAdmin)))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
