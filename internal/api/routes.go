package api

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/FathimaMehrinVS/FixTheGap/internal/mapping"
	"github.com/FathimaMehrinVS/FixTheGap/internal/predict"
	"github.com/FathimaMehrinVS/FixTheGap/internal/predictor"
	"github.com/FathimaMehrinVS/FixTheGap/internal/results"
	"github.com/FathimaMehrinVS/FixTheGap/internal/salary"
	"github.com/FathimaMehrinVS/FixTheGap/internal/session"
	"github.com/FathimaMehrinVS/FixTheGap/internal/simulate"
	"github.com/FathimaMehrinVS/FixTheGap/internal/tavily"
)

// sessionCookie identifies the browser session across submit and results.
const sessionCookie = "ftg_session"

const sessionCookieMaxAge = 365 * 24 * time.Hour

// Config defines server dependencies.
type Config struct {
	DBPath           string
	PredictBaseURL   string
	ModelDir         string
	SalaryTablesPath string
	AllowedOrigins   []string
	SilentDB         bool
	FailurePolicy    simulate.FailurePolicy
	RolePolicy       mapping.RolePolicy
	RequestTimeout   time.Duration
	TavilyConfig     tavily.Config
	DisableTavily    bool
}

// Server wires HTTP handlers with persistence, the simulation controller and
// the local prediction backend.
type Server struct {
	store          *session.Store
	controller     *simulate.Controller
	model          *predictor.Model
	market         *tavily.Client
	notifier       *StatusNotifier
	policy         simulate.FailurePolicy
	rolePolicy     mapping.RolePolicy
	predictBase    string
	allowedOrigins []string
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	store, err := session.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	tables := salary.DefaultTables()
	if path := strings.TrimSpace(cfg.SalaryTablesPath); path != "" {
		tables, err = salary.LoadTables(path)
		if err != nil {
			return nil, fmt.Errorf("salary tables: %w", err)
		}
		logrus.WithField("path", path).Info("salary tables loaded")
	}
	fallback := salary.NewModel(tables, rand.New(rand.NewSource(time.Now().UnixNano())))

	client := predict.NewClient(predict.Config{
		BaseURL:    cfg.PredictBaseURL,
		RolePolicy: cfg.RolePolicy,
	})

	notifier := NewStatusNotifier()
	controller, err := simulate.NewController(simulate.Config{
		Store:         store,
		Client:        client,
		FallbackModel: fallback,
		Policy:        cfg.FailurePolicy,
		Notifier:      notifier,
		Timeout:       cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("simulation controller: %w", err)
	}

	modelDir := strings.TrimSpace(cfg.ModelDir)
	if modelDir == "" {
		modelDir = "models"
	}
	var model *predictor.Model
	if loaded, err := predictor.Load(modelDir); err == nil {
		model = loaded
		logrus.WithFields(logrus.Fields{
			"dir":   modelDir,
			"roles": len(loaded.Roles()),
		}).Info("prediction model loaded")
	} else {
		logrus.WithError(err).WithField("dir", modelDir).Warn("prediction model unavailable")
	}

	var market *tavily.Client
	if cfg.DisableTavily {
		logrus.Info("market enrichment disabled via configuration")
	} else if c, err := tavily.NewClient(cfg.TavilyConfig); err == nil {
		market = c
		logrus.WithFields(logrus.Fields{
			"ttl":     cfg.TavilyConfig.CacheTTL,
			"timeout": cfg.TavilyConfig.Timeout,
		}).Info("market enrichment enabled")
	} else if errors.Is(err, tavily.ErrDisabled) {
		logrus.Info("market enrichment disabled - no API key configured")
	} else {
		return nil, fmt.Errorf("tavily client: %w", err)
	}

	return &Server{
		store:          store,
		controller:     controller,
		model:          model,
		market:         market,
		notifier:       notifier,
		policy:         cfg.FailurePolicy,
		rolePolicy:     cfg.RolePolicy,
		predictBase:    client.BaseURL(),
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Close releases the underlying session store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/", s.handleRoot)
	r.GET("/predict", s.handlePredict)
	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/simulate", s.handleSimulate)
		api.GET("/simulate/status", s.handleSimulateStatus)
		api.GET("/simulate/stream", s.handleSimulateStream)
		api.GET("/results", s.handleResults)
	}

	return r, nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "FixTheGap API running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	resp := ConfigResponse{
		PredictBase:      s.predictBase,
		FailurePolicy:    string(s.policy),
		RolePolicy:       string(s.rolePolicy),
		PredictorEnabled: s.model != nil,
		MarketEnabled:    s.market != nil,
	}
	if s.model != nil {
		resp.Roles = s.model.Roles()
		resp.Genders = s.model.Genders()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSimulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	sessionID := s.sessionID(c)
	outcome, err := s.controller.Run(c.Request.Context(), sessionID, simulate.Form{
		Role:         req.Role,
		Location:     req.Location,
		Industry:     req.Industry,
		Experience:   req.Experience,
		Gender:       req.Gender,
		ActualSalary: req.ActualSalary,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, SimulateResponse{
		SessionID: sessionID,
		Status:    string(outcome.Status),
		Redirect:  outcome.Redirect,
	})
}

func (s *Server) handleResults(c *gin.Context) {
	view, err := results.Load(s.store, s.sessionID(c))
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// handlePredict serves the local prediction backend. Model failures are
// reported as an error field in a 200 response, which the widget surfaces on
// the results view.
func (s *Server) handlePredict(c *gin.Context) {
	if s.model == nil {
		c.JSON(http.StatusOK, gin.H{"error": "prediction model unavailable"})
		return
	}

	gender := strings.TrimSpace(c.Query("gender"))
	role := strings.TrimSpace(c.Query("role"))
	location := strings.TrimSpace(c.Query("location"))

	years, err := strconv.Atoi(strings.TrimSpace(c.Query("experience")))
	if err != nil || years < 0 {
		c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("invalid experience: %s", c.Query("experience"))})
		return
	}

	result, err := s.model.Evaluate(gender, role, years)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	resp := PredictResponse{
		Predicted: result.Predicted,
		Adjusted:  result.Adjusted,
		PayGap:    result.PayGap,
	}
	if s.market != nil {
		if data, err := s.market.AverageSalary(c.Request.Context(), role, location); err == nil {
			resp.Market = &MarketDTO{AverageSalary: data.AverageSalary, Source: data.Source}
		} else {
			logrus.WithError(err).WithField("role", role).Debug("market enrichment skipped")
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSimulateStatus(c *gin.Context) {
	status := s.notifier.LastStatus()
	if status == nil {
		c.JSON(http.StatusOK, gin.H{"state": "idle"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleSimulateStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("status websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("status websocket closed")
			} else {
				logrus.WithError(err).Warn("status websocket unexpected close")
			}
			break
		}
	}
}

// sessionID reads the session cookie, minting one when absent so the
// submission and the later results fetch share state.
func (s *Server) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil && strings.TrimSpace(id) != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(sessionCookie, id, int(sessionCookieMaxAge.Seconds()), "/", "", false, true)
	return id
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
