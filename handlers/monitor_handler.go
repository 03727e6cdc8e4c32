package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"reddit_intent/config"
	_ "reddit_intent/docs" // 导入 swagger 文档
	"reddit_intent/logger"
	"reddit_intent/models"
	"reddit_intent/repository"
	"reddit_intent/services"
	"reddit_intent/utils"
)

// MonitorService 监控器，services.Monitor 是其实现
type MonitorService interface {
	RunCycle(ctx context.Context, opts models.CycleOptions) (*models.CycleResult, error)
	Status() services.MonitorStatus
	SendResponse(ctx context.Context, r models.ResponseRecord) (bool, error)
}

// runRequest 触发监控周期的请求体；缺省字段取配置值
type runRequest struct {
	Subreddits    []string `json:"subreddits"`
	Keywords      []string `json:"keywords"`
	Limit         int      `json:"limit"`
	MinIntent     string   `json:"min_intent"`
	MinConfidence *float64 `json:"min_confidence"`
	SendMessages  bool     `json:"send_messages"`
}

func (req runRequest) options(cfg *config.Config) models.CycleOptions {
	opts := models.CycleOptions{
		Subreddits:    utils.DeduplicateSlice(req.Subreddits),
		Keywords:      utils.DeduplicateSlice(req.Keywords),
		Limit:         req.Limit,
		MinIntent:     req.MinIntent,
		MinConfidence: cfg.Intent.MinConfidence,
		SendMessages:  req.SendMessages,
	}
	if strings.TrimSpace(opts.MinIntent) == "" {
		opts.MinIntent = cfg.Intent.MinIntent
	}
	if req.MinConfidence != nil {
		opts.MinConfidence = *req.MinConfidence
	}
	return opts
}

// RunMonitorHandler godoc
// @Summary 触发一次监控周期
// @Description 抓取 Reddit 帖子、识别购买意向并生成私信。默认在后台执行，sync=true 时等待执行完成并返回结果
// @Tags 监控
// @Accept json
// @Produce json
// @Param sync query bool false "是否同步执行"
// @Param request body models.CycleOptions false "周期参数"
// @Success 200 {object} models.CycleResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/monitor/run [post]
func RunMonitorHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, monitor MonitorService) {
	var req runRequest
	if !utils.DecodeJSONBody(w, r, &req) {
		return
	}
	opts := req.options(cfg)

	// 先校验阈值，非法时不触发任何外部调用
	if _, err := models.NewThreshold(opts.MinIntent, opts.MinConfidence); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidThreshold, err.Error(), map[string]interface{}{})
		return
	}

	if r.URL.Query().Get("sync") == "true" {
		result, err := monitor.RunCycle(r.Context(), opts)
		if err != nil {
			writeCycleError(w, err, result)
			return
		}
		utils.WriteSuccessResponse(w, result)
		return
	}

	if monitor.Status().IsRunning {
		utils.WriteErrorResponse(w, models.CodeCycleRunning, map[string]interface{}{})
		return
	}
	go func() {
		if _, err := monitor.RunCycle(context.Background(), opts); err != nil {
			logger.Error("Background monitoring cycle failed", "error", err)
		}
	}()
	utils.WriteSuccessResponse(w, map[string]interface{}{"status": "started"})
}

func writeCycleError(w http.ResponseWriter, err error, result *models.CycleResult) {
	switch {
	case errors.Is(err, models.ErrInvalidThreshold), errors.Is(err, models.ErrUnknownCategory):
		utils.WriteCustomErrorResponse(w, models.CodeInvalidThreshold, err.Error(), map[string]interface{}{})
	case errors.Is(err, services.ErrCycleRunning):
		utils.WriteErrorResponse(w, models.CodeCycleRunning, map[string]interface{}{})
	default:
		var data interface{} = map[string]interface{}{}
		if result != nil {
			data = result
		}
		utils.WriteCustomErrorResponse(w, models.CodeCycleError, err.Error(), data)
	}
}

// MonitorStatusHandler godoc
// @Summary 查询监控状态
// @Description 返回是否有周期在运行、当前参数与上一次结果
// @Tags 监控
// @Produce json
// @Success 200 {object} models.APIResponse "成功"
// @Router /api/monitor/status [get]
func MonitorStatusHandler(w http.ResponseWriter, r *http.Request, monitor MonitorService) {
	utils.WriteSuccessResponse(w, monitor.Status())
}

// ListCyclesHandler godoc
// @Summary 查询最近的监控周期
// @Tags 监控
// @Produce json
// @Param limit query int false "返回条数，默认20"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/cycles [get]
func ListCyclesHandler(w http.ResponseWriter, r *http.Request) {
	cycles, err := repository.ListCycles(utils.QueryInt(r, "limit", 20))
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	utils.WriteSuccessResponse(w, cycles)
}

// GetCycleHandler godoc
// @Summary 查询单个监控周期
// @Tags 监控
// @Produce json
// @Param id path string true "周期ID"
// @Success 200 {object} models.CycleResponse "成功"
// @Failure 400 {object} models.APIResponse "数据不存在"
// @Router /api/cycles/{id} [get]
func GetCycleHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.ValidateParam(w, "id", id) {
		return
	}
	cycle, err := repository.GetCycle(id)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	utils.WriteSuccessResponse(w, cycle)
}

// ListResponsesHandler godoc
// @Summary 查询生成的私信
// @Description 不指定 cycle_id 时返回最近一个周期的私信
// @Tags 私信
// @Produce json
// @Param cycle_id query string false "周期ID"
// @Success 200 {object} models.ResponseListResponse "成功"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/responses [get]
func ListResponsesHandler(w http.ResponseWriter, r *http.Request) {
	responses, err := repository.ListResponses(r.URL.Query().Get("cycle_id"))
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	utils.WriteSuccessResponse(w, responses)
}

// SendResponseHandler godoc
// @Summary 发送一条已生成的私信
// @Description 运营审核后手动发送；同一用户在冷却期内不会重复发送
// @Tags 私信
// @Produce json
// @Param id path string true "私信ID"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "数据不存在或已发送"
// @Failure 500 {object} models.APIResponse "发送失败"
// @Router /api/responses/{id}/send [post]
func SendResponseHandler(w http.ResponseWriter, r *http.Request, monitor MonitorService) {
	id := chi.URLParam(r, "id")
	if !utils.ValidateParam(w, "id", id) {
		return
	}
	record, err := repository.GetResponse(id)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	if record.Sent {
		utils.WriteErrorResponse(w, models.CodeAlreadySent, map[string]interface{}{"id": id})
		return
	}

	sent, err := monitor.SendResponse(r.Context(), *record)
	switch {
	case errors.Is(err, services.ErrMessagingDisabled):
		utils.WriteErrorResponse(w, models.CodeMessagingDisabled, map[string]interface{}{})
		return
	case err != nil:
		utils.WriteCustomErrorResponse(w, models.CodeThirdPartyAPIError, err.Error(), map[string]interface{}{})
		return
	case !sent:
		utils.WriteErrorResponse(w, models.CodeRecipientCooldown, map[string]interface{}{"author": record.Author})
		return
	}

	if _, err := repository.MarkResponseSent(id); err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	logger.Info("Response sent after review", "id", id, "author", record.Author)
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id, "sent": true})
}

// GetPromptHandler godoc
// @Summary 查询提示词模板
// @Description kind 为 intent 或 response；未保存自定义模板时返回内置模板
// @Tags 提示词
// @Produce json
// @Param kind path string true "模板类型"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Router /api/prompts/{kind} [get]
func GetPromptHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	def, ok := services.DefaultPromptTemplate(kind)
	if !ok {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "unknown prompt kind: "+kind, map[string]interface{}{})
		return
	}

	tmpl, err := repository.GetPromptTemplate(kind)
	if err != nil && !utils.IsSQLNoRowsError(err) {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	if err != nil || tmpl == "" {
		utils.WriteSuccessResponse(w, map[string]interface{}{
			"kind":            kind,
			"prompt_template": def,
			"is_default":      true,
		})
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"kind":            kind,
		"prompt_template": tmpl,
		"is_default":      false,
	})
}

// SavePromptHandler godoc
// @Summary 保存提示词模板
// @Description 模板使用 text/template 占位符（如 .content），保存前会用示例数据渲染校验
// @Tags 提示词
// @Accept json
// @Produce json
// @Param kind path string true "模板类型"
// @Param request body models.PromptTemplateRequest true "模板"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "模板不合法"
// @Router /api/prompts/{kind} [put]
func SavePromptHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	var req models.PromptTemplateRequest
	if !utils.DecodeJSONBody(w, r, &req) {
		return
	}
	if !utils.ValidateParam(w, "prompt_template", req.Template) {
		return
	}
	if err := services.ValidatePromptTemplate(kind, req.Template); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidTemplate, err.Error(), map[string]interface{}{})
		return
	}
	if err := repository.SavePromptTemplate(kind, req.Template); err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	logger.Info("Prompt template saved", "kind", kind)
	utils.WriteSuccessResponse(w, map[string]interface{}{"kind": kind})
}

// ResetPromptHandler godoc
// @Summary 恢复内置提示词模板
// @Tags 提示词
// @Produce json
// @Param kind path string true "模板类型"
// @Success 200 {object} models.APIResponse "成功"
// @Router /api/prompts/{kind} [delete]
func ResetPromptHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, ok := services.DefaultPromptTemplate(kind); !ok {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "unknown prompt kind: "+kind, map[string]interface{}{})
		return
	}
	if err := repository.DeletePromptTemplate(kind); err != nil {
		utils.HandleServiceError(w, err, models.CodeNotFound)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"kind": kind})
}

// HealthHandler godoc
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} models.APIResponse "成功"
// @Router /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, map[string]interface{}{"status": "ok"})
}

func RegisterRoutes(r chi.Router, cfg *config.Config, monitor MonitorService) {
	// Swagger 文档
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Swagger JSON 的 URL
	))

	r.Get("/health", HealthHandler)

	r.Post("/api/monitor/run", func(w http.ResponseWriter, r *http.Request) {
		RunMonitorHandler(w, r, cfg, monitor)
	})

	r.Get("/api/monitor/status", func(w http.ResponseWriter, r *http.Request) {
		MonitorStatusHandler(w, r, monitor)
	})

	r.Get("/api/cycles", ListCyclesHandler)
	r.Get("/api/cycles/{id}", GetCycleHandler)
	r.Get("/api/responses", ListResponsesHandler)
	r.Post("/api/responses/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		SendResponseHandler(w, r, monitor)
	})

	r.Get("/api/prompts/{kind}", GetPromptHandler)
	r.Put("/api/prompts/{kind}", SavePromptHandler)
	r.Delete("/api/prompts/{kind}", ResetPromptHandler)
}
