// @title         Platewise API
// @version       0.1.0
// @description   Nutrition resolution over an authoritative nutrient database and a generative estimator

package main

import (
	"context"
	"time"

	"platewise/internal/platform/cache"
	"platewise/internal/platform/config"
	"platewise/internal/platform/logger"
	phttp "platewise/internal/platform/net/http"
	"platewise/internal/platform/ratelimit"

	"platewise/internal/adapters/upstream/fdc"
	"platewise/internal/adapters/upstream/genai"
	"platewise/internal/core/realism"
	"platewise/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (API_*)
	root := config.New()
	apiCfg := root.Prefix("API_")

	fdcCfg := root.Prefix("FDC_")         // authoritative nutrient database
	genaiCfg := root.Prefix("GENAI_")     // generative estimator
	rateCfg := root.Prefix("RATE_")       // per-client budgets
	realismCfg := root.Prefix("REALISM_") // plausibility policy overrides

	// bring up logging early
	l := logger.Get()

	db := fdc.NewClient(fdc.Options{
		BaseURL: fdcCfg.MayString("BASE_URL", ""),
		APIKey:  fdcCfg.MayString("API_KEY", ""),
		Timeout: fdcCfg.MayDuration("TIMEOUT", 15*time.Second),
	})
	est := genai.NewClient(genai.Options{
		BaseURL: genaiCfg.MayString("BASE_URL", ""),
		APIKey:  genaiCfg.MayString("API_KEY", ""),
		Model:   genaiCfg.MayString("MODEL", ""),
		Timeout: genaiCfg.MayDuration("TIMEOUT", 30*time.Second),
	})
	if !db.Configured() && !est.Configured() {
		l.Warn().Msg("no upstream keys configured; all resolutions will fail")
	}

	store := cache.NewMemory(cache.WithTTL(apiCfg.MayDuration("CACHE_TTL", 24*time.Hour)))
	limiter := ratelimit.New(
		ratelimit.WithBudget(ratelimit.ClassText, ratelimit.Budget{
			Max:    rateCfg.MayInt("TEXT_MAX", 30),
			Window: rateCfg.MayDuration("TEXT_WINDOW", 15*time.Minute),
		}),
		ratelimit.WithBudget(ratelimit.ClassPhoto, ratelimit.Budget{
			Max:    rateCfg.MayInt("PHOTO_MAX", 10),
			Window: rateCfg.MayDuration("PHOTO_WINDOW", 15*time.Minute),
		}),
		ratelimit.WithBudget(ratelimit.ClassChat, ratelimit.Budget{
			Max:    rateCfg.MayInt("CHAT_MAX", 20),
			Window: rateCfg.MayDuration("CHAT_WINDOW", 15*time.Minute),
		}),
	)

	limits := realism.DefaultLimits()
	limits.CaloriesMax = realismCfg.MayFloat64("CALORIES_MAX", limits.CaloriesMax)
	limits.MacroTolerance = realismCfg.MayFloat64("MACRO_TOLERANCE", limits.MacroTolerance)
	limits.SodiumMaxMg = realismCfg.MayFloat64("SODIUM_MAX_MG", limits.SodiumMaxMg)
	limits.SugarMaxGrams = realismCfg.MayFloat64("SUGAR_MAX_G", limits.SugarMaxGrams)

	// http server (reads API_PORT)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			DB:             db,
			Estimator:      est,
			Cache:          store,
			Limiter:        limiter,
			Limits:         limits,
			CORSOrigins:    apiCfg.MayCSV("CORS_ORIGINS", nil),
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// run
	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
