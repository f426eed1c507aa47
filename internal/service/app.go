package service

import (
	"context"
	"strings"

	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/service/executor"
	"toolhub/internal/telemetry"

	"go.uber.org/zap"
)

// function 名稱必須以 app 名稱加上這個分隔開頭
const functionNameSeparator = "__"

type AppService struct {
	trace     *telemetry.Trace
	logger    *zap.Logger
	apps      AppStore
	functions FunctionStore
}

func NewAppService(trace *telemetry.Trace, logger *zap.Logger, apps AppStore, functions FunctionStore) *AppService {
	return &AppService{trace: trace, logger: logger, apps: apps, functions: functions}
}

// 憑證放在 header 時回傳 header 名稱
func credentialHeader(config security.SchemeConfig) (string, bool) {
	switch scheme := config.(type) {
	case security.APIKeyScheme:
		return scheme.Name, scheme.Location == security.LocationHeader
	case security.OAuth2Scheme:
		return scheme.Name, scheme.Location == security.LocationHeader
	}
	return "", false
}

// Upsert 寫入 app 與其 functions；預設憑證不受影響
func (s *AppService) Upsert(ctx context.Context, req *dto.UpsertAppDto) (_ *dto.AppResponseDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if len(req.SecuritySchemes.Schemes()) == 0 {
		return nil, cErr.BadRequestBody("app must declare at least one security scheme")
	}
	for _, scheme := range req.SecuritySchemes.Schemes() {
		config, _ := req.SecuritySchemes.Get(scheme)
		if name, ok := credentialHeader(config); ok && executor.ReservedHeader(name) {
			return nil, cErr.BadRequestBody(string(scheme) + " credentials cannot be sent in header " + name)
		}
	}
	for _, function := range req.Functions {
		if !strings.HasPrefix(function.Name, req.Name+functionNameSeparator) {
			return nil, cErr.BadRequestBody("function " + function.Name + " must be prefixed with " + req.Name + functionNameSeparator)
		}
	}

	app, err := s.apps.Upsert(ctx, &model.App{
		Name:            req.Name,
		DisplayName:     req.DisplayName,
		Description:     req.Description,
		Categories:      req.Categories,
		SecuritySchemes: req.SecuritySchemes,
		Active:          boolOrTrue(req.Active),
	})
	if err != nil {
		return nil, cErr.DatabaseError("mongodb upsert app failed")
	}
	for _, function := range req.Functions {
		if err := s.functions.Upsert(ctx, &model.Function{
			Name:        function.Name,
			AppName:     app.Name,
			Description: function.Description,
			Tags:        function.Tags,
			Protocol:    model.ProtocolREST,
			ProtocolData: model.RESTProtocolData{
				Method:    strings.ToUpper(function.Method),
				Path:      function.Path,
				ServerURL: function.ServerURL,
			},
			Parameters: function.Parameters,
			Active:     boolOrTrue(function.Active),
		}); err != nil {
			return nil, cErr.DatabaseError("mongodb upsert function " + function.Name + " failed")
		}
	}
	s.logger.Info("app upserted", zap.String("app", app.Name), zap.Int("functions", len(req.Functions)))
	return s.Get(ctx, app.Name)
}

// Get 回傳 app 與其啟用中的 functions
func (s *AppService) Get(ctx context.Context, name string) (*dto.AppResponseDto, error) {
	app, err := s.apps.GetByName(ctx, name)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get app failed")
	}
	if app == nil {
		return nil, cErr.NotFound("app " + name + " not found")
	}
	functions, err := s.functions.ListByApp(ctx, name, true)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb list functions failed")
	}
	response := appToDto(app)
	for _, function := range functions {
		response.Functions = append(response.Functions, *functionToDto(function))
	}
	return response, nil
}

// SetDefaultCredentials 設定 app 層級的預設憑證，linked account 沒有憑證時使用
func (s *AppService) SetDefaultCredentials(ctx context.Context, name string, req *dto.SetAppDefaultCredentialsDto) (returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	app, err := s.apps.GetByName(ctx, name)
	if err != nil {
		return cErr.DatabaseError("mongodb get app failed")
	}
	if app == nil {
		return cErr.NotFound("app " + name + " not found")
	}
	if _, ok := app.SecuritySchemes.Get(req.SecurityScheme); !ok {
		return cErr.BadRequestBody("app " + name + " does not support security scheme " + string(req.SecurityScheme))
	}
	credentials, err := security.DecodeJSON(req.SecurityScheme, req.Credentials)
	if err != nil {
		return cErr.BadRequestBody("invalid credentials: " + err.Error())
	}
	if security.IsEmpty(credentials) {
		return cErr.BadRequestBody("credentials must not be empty")
	}
	raw, err := security.Encode(req.SecurityScheme, credentials)
	if err != nil {
		return cErr.InternalServer("encode credentials failed: " + err.Error())
	}
	if err := s.apps.SetDefaultCredentials(ctx, name, string(req.SecurityScheme), raw); err != nil {
		return cErr.DatabaseError("mongodb set app default credentials failed")
	}
	return nil
}

func appToDto(app *model.App) *dto.AppResponseDto {
	return &dto.AppResponseDto{
		Name:            app.Name,
		DisplayName:     app.DisplayName,
		Description:     app.Description,
		Categories:      app.Categories,
		SecuritySchemes: app.SecuritySchemes.Schemes(),
		Active:          app.Active,
	}
}

func boolOrTrue(value *bool) bool {
	return value == nil || *value
}
