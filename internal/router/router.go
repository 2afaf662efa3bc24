package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodcost/internal/config"
	"foodcost/internal/metrics"
	"foodcost/internal/middleware"
	"foodcost/internal/recipe"
	"foodcost/internal/units"
)

type Deps struct {
	Config  config.API
	Log     *zap.Logger
	Metrics *metrics.Registry
	Recipes *recipe.Handler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log))

	corsCfg := cors.Config{
		AllowOrigins:     d.Config.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           d.Config.CORS.MaxAge,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Unit catalog, reference data only
	r.GET("/units", func(c *gin.Context) {
		c.JSON(http.StatusOK, units.All())
	})

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	recipes := r.Group("/recipes")
	recipes.Use(
		middleware.AuthMiddleware([]byte(d.Config.Auth.JWTSecret), d.Log),
		middleware.RequireRole(d.Config.Auth.CostRoles...),
	)
	{
		recipes.GET("/:id/cost", d.Recipes.GetCost)
		recipes.GET("/:id/allergens", d.Recipes.GetAllergens)
	}

	return r
}
