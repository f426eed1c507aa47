package service

import (
	"context"
	"fmt"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	fluentdModel "toolhub/internal/database/fluentd/model"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/service/executor"
	"toolhub/internal/telemetry"

	"go.uber.org/zap"
)

// FunctionExecutor 由 executor.RESTExecutor 實作
type FunctionExecutor interface {
	Execute(ctx context.Context, call executor.Call) (*executor.Result, error)
}

type FunctionService struct {
	trace     *telemetry.Trace
	metric    *telemetry.Metric
	logger    *zap.Logger
	apps      AppStore
	functions FunctionStore
	accounts  LinkedAccountStore
	resolver  *CredentialsResolver
	executor  FunctionExecutor
	usageLog  UsageLogger
	config    *config.Configuration
	now       func() time.Time
}

func NewFunctionService(
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	logger *zap.Logger,
	apps AppStore,
	functions FunctionStore,
	accounts LinkedAccountStore,
	resolver *CredentialsResolver,
	executor FunctionExecutor,
	usageLog UsageLogger,
	config *config.Configuration,
) *FunctionService {
	return &FunctionService{
		trace:     trace,
		metric:    metric,
		logger:    logger,
		apps:      apps,
		functions: functions,
		accounts:  accounts,
		resolver:  resolver,
		executor:  executor,
		usageLog:  usageLog,
		config:    config,
		now:       time.Now,
	}
}

// Get 回傳啟用中的 function 定義
func (s *FunctionService) Get(ctx context.Context, name string) (*dto.FunctionResponseDto, error) {
	function, err := s.activeFunction(ctx, name)
	if err != nil {
		return nil, err
	}
	return functionToDto(function), nil
}

// Execute 執行 function：解析憑證，刷新過的 token 寫回來源後送出外部請求。
// 寫回失敗只記錄，不影響本次呼叫。
func (s *FunctionService) Execute(ctx context.Context, project *model.Project, functionName string, req *dto.ExecuteFunctionDto) (_ *dto.FunctionExecutionResultDto, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	started := s.now()
	traceMetadata := core.TraceFunctionExecuteMeta{
		FunctionName: functionName,
		ProjectID:    project.ID.Hex(),
		OwnerID:      req.LinkedAccountOwnerID,
	}
	defer func() { s.trace.ApplyTraceAttributes(span, traceMetadata) }()

	function, err := s.activeFunction(ctx, functionName)
	if err != nil {
		return nil, err
	}
	traceMetadata.AppName = function.AppName

	app, err := s.apps.GetByName(ctx, function.AppName)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get app failed")
	}
	if app == nil || !app.Active {
		return nil, cErr.NotFound("app " + function.AppName + " not found")
	}

	account, err := s.accounts.Get(ctx, project.ID, app.Name, req.LinkedAccountOwnerID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get linked account failed")
	}
	if account == nil {
		return nil, cErr.NotFound(fmt.Sprintf("linked account %s for app %s not found", req.LinkedAccountOwnerID, app.Name))
	}
	if !account.Enabled {
		return nil, cErr.LinkedAccountDisabled("linked account " + account.ID.Hex() + " is disabled")
	}

	resolved, err := s.resolver.Resolve(ctx, app, account)
	if err != nil {
		s.logFunctionUsage(ctx, project, function, account, nil, nil, started, err)
		return nil, err
	}
	var warning string
	if resolved.IsUpdated {
		if err := s.writeBack(ctx, app, account, resolved); err != nil {
			warning = "refreshed credentials could not be persisted"
		}
	}

	result, err := s.executor.Execute(ctx, executor.Call{
		Function:     function,
		SchemeConfig: resolved.SchemeConfig,
		Credentials:  resolved.Credentials,
		Input:        req.FunctionInput,
	})
	if err != nil {
		s.logFunctionUsage(ctx, project, function, account, resolved, nil, started, err)
		return nil, err
	}
	traceMetadata.StatusCode, traceMetadata.Success = result.StatusCode, result.Success

	if err := s.accounts.TouchLastUsed(ctx, account.ID, s.now().UTC()); err != nil {
		s.logger.Warn("touch linked account last used failed", zap.String("linkedAccountID", account.ID.Hex()), zap.Error(err))
	}
	s.observe(app.Name, result.Success, s.now().Sub(started))
	s.logFunctionUsage(ctx, project, function, account, resolved, result, started, nil)

	return &dto.FunctionExecutionResultDto{Success: result.Success, Data: result.Data, Error: result.Error, Warning: warning}, nil
}

// writeBack 把刷新後的 token 寫回 linked account 或 app 預設；失敗不中斷本次呼叫
func (s *FunctionService) writeBack(ctx context.Context, app *model.App, account *model.LinkedAccount, resolved *ResolvedCredentials) error {
	source := "linked_account"
	if resolved.IsAppDefault {
		source = "app_default"
	}
	raw, err := security.Encode(resolved.Scheme, resolved.Credentials)
	if err == nil {
		if resolved.IsAppDefault {
			err = s.apps.SetDefaultCredentials(ctx, app.Name, string(resolved.Scheme), raw)
		} else {
			err = s.accounts.UpdateCredentials(ctx, account.ID, raw)
		}
	}
	if err != nil {
		s.logger.Error("persist refreshed credentials failed",
			zap.String("app", app.Name),
			zap.String("linkedAccountID", account.ID.Hex()),
			zap.String("source", source),
			zap.Error(err),
		)
		if s.metric.CredentialWriteBackFail != nil {
			s.metric.CredentialWriteBackFail.WithLabelValues(source).Inc()
		}
	}
	return err
}

func (s *FunctionService) activeFunction(ctx context.Context, name string) (*model.Function, error) {
	function, err := s.functions.GetByName(ctx, name)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get function failed")
	}
	if function == nil || !function.Active {
		return nil, cErr.NotFound("function " + name + " not found")
	}
	return function, nil
}

func (s *FunctionService) observe(appName string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	if s.metric.FunctionExecutionTotal != nil {
		s.metric.FunctionExecutionTotal.WithLabelValues(appName, status).Inc()
	}
	if s.metric.FunctionExecutionDuration != nil {
		s.metric.FunctionExecutionDuration.WithLabelValues(appName).Observe(elapsed.Seconds())
	}
}

func (s *FunctionService) logFunctionUsage(
	ctx context.Context,
	project *model.Project,
	function *model.Function,
	account *model.LinkedAccount,
	resolved *ResolvedCredentials,
	result *executor.Result,
	started time.Time,
	failure error,
) {
	usage := fluentdModel.FunctionUsageLog{
		ProjectID:            project.ID.Hex(),
		OrgID:                project.OrgID,
		AppName:              function.AppName,
		FunctionName:         function.Name,
		LinkedAccountOwnerID: account.LinkedAccountOwnerID,
		SecurityScheme:       string(account.SecurityScheme),
		DurationMs:           s.now().Sub(started).Milliseconds(),
	}
	if resolved != nil {
		usage.IsAppDefault = resolved.IsAppDefault
		usage.CredentialsRefreshed = resolved.IsUpdated
	}
	if result != nil {
		usage.Success = result.Success
		usage.StatusCode = result.StatusCode
		usage.Error = result.Error
	}
	if failure != nil {
		usage.Error = failure.Error()
	}
	if err := s.usageLog.LogFunctionUsage(ctx, usage); err != nil {
		s.logger.Error("fluentd function usage log failed", zap.String("function", function.Name), zap.Error(err))
	}
}

func functionToDto(function *model.Function) *dto.FunctionResponseDto {
	return &dto.FunctionResponseDto{
		Name:        function.Name,
		AppName:     function.AppName,
		Description: function.Description,
		Tags:        function.Tags,
		Parameters:  function.Parameters,
		Active:      function.Active,
	}
}
