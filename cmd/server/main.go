package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/FathimaMehrinVS/FixTheGap/internal/api"
	"github.com/FathimaMehrinVS/FixTheGap/internal/mapping"
	"github.com/FathimaMehrinVS/FixTheGap/internal/simulate"
	"github.com/FathimaMehrinVS/FixTheGap/internal/tavily"
)

func main() {
	_ = godotenv.Load()

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	tavilyCfg := tavily.Config{
		APIKey:  os.Getenv("TAVILY_API_KEY"),
		BaseURL: os.Getenv("TAVILY_BASE_URL"),
	}
	if timeout := os.Getenv("TAVILY_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			tavilyCfg.Timeout = d
		}
	}
	if ttl := os.Getenv("TAVILY_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			tavilyCfg.CacheTTL = d
		}
	}

	cfg := api.Config{
		DBPath:           filepath.Join(dataDir, "fixthegap.db"),
		PredictBaseURL:   strings.TrimSpace(os.Getenv("FTG_API_BASE")),
		ModelDir:         strings.TrimSpace(os.Getenv("FTG_MODEL_DIR")),
		SalaryTablesPath: strings.TrimSpace(os.Getenv("FTG_SALARY_TABLES")),
		FailurePolicy:    simulate.ParseFailurePolicy(os.Getenv("FTG_FAILURE_POLICY")),
		RolePolicy:       mapping.ParseRolePolicy(os.Getenv("FTG_ROLE_POLICY")),
		TavilyConfig:     tavilyCfg,
		DisableTavily:    strings.EqualFold(strings.TrimSpace(os.Getenv("DISABLE_TAVILY")), "true"),
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"https://fixthegap.onrender.com",
		},
	}

	if override := strings.TrimSpace(os.Getenv("FTG_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("FTG_ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = cfg.AllowedOrigins[:0]
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}
	if timeout := os.Getenv("FTG_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.RequestTimeout = d
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	logrus.Infof("starting fixthegap backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
