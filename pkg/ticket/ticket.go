package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request 建单请求
type Request struct {
	System    string `json:"system"`
	Priority  string `json:"priority"`
	Summary   string `json:"summary"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

// Ticket 建单结果。Ref 会记录在执行结果中用于追踪。
type Ticket struct {
	Ref       string    `json:"ref"`
	System    string    `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

// System 工单系统
type System interface {
	Create(ctx context.Context, req Request) (Ticket, error)
}

// Config 工单配置
type Config struct {
	Endpoint string `toml:"endpoint"` // 为空时使用本地编号
	APIKey   string `toml:"api_key"`
	Timeout  string `toml:"timeout"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("timeout is invalid: %w", err)
	}
	return nil
}

// New 根据配置选择实现
func New(cfg Config) (System, error) {
	if cfg.Endpoint == "" {
		return NewLocalSystem(), nil
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return NewHTTPSystem(cfg.Endpoint, cfg.APIKey, timeout), nil
}

// ============================================================================
// LocalSystem - 本地编号
// ============================================================================

// LocalSystem 不对接外部系统，只生成可追踪的工单编号
type LocalSystem struct {
	logger *slog.Logger
}

var _ System = (*LocalSystem)(nil)

// NewLocalSystem 创建本地工单系统
func NewLocalSystem() *LocalSystem {
	return &LocalSystem{logger: slog.Default().With("module", "ticket")}
}

// Create 生成工单编号
func (s *LocalSystem) Create(_ context.Context, req Request) (Ticket, error) {
	t := Ticket{
		Ref:       fmt.Sprintf("TKT-%s", uuid.New().String()[:8]),
		System:    req.System,
		CreatedAt: time.Now(),
	}

	s.logger.Info("ticket recorded",
		"ref", t.Ref,
		"system", req.System,
		"priority", req.Priority,
	)

	return t, nil
}

// ============================================================================
// HTTPSystem - 外部工单系统
// ============================================================================

// HTTPSystem 通过 HTTP 端点创建工单
type HTTPSystem struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string
	apiKey   string
}

var _ System = (*HTTPSystem)(nil)

// NewHTTPSystem 创建 HTTP 工单系统
func NewHTTPSystem(endpoint, apiKey string, timeout time.Duration) *HTTPSystem {
	return &HTTPSystem{
		logger:   slog.Default().With("module", "ticket"),
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Create 调用外部系统建单
func (s *HTTPSystem) Create(ctx context.Context, req Request) (Ticket, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Ticket{}, fmt.Errorf("marshal ticket request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Ticket{}, fmt.Errorf("build ticket request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Ticket{}, fmt.Errorf("create ticket: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Ref string `json:"ref"`
		ID  string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket response: %w", err)
	}

	ref := out.Ref
	if ref == "" {
		ref = out.ID
	}

	t := Ticket{Ref: ref, System: req.System, CreatedAt: time.Now()}
	s.logger.Info("ticket created", "ref", t.Ref, "system", req.System)

	return t, nil
}
