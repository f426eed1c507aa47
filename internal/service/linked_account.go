package service

import (
	"context"
	"net/http"
	"time"

	"toolhub/config"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	"toolhub/internal/oauth2"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OAuth2Linker 授權流程需要的 provider 操作，由 oauth2.Manager 實作
type OAuth2Linker interface {
	BuildAuthorizationURL(state, redirectURI, codeVerifier string) (string, error)
	ExchangeCodeForToken(ctx context.Context, code, redirectURI, codeVerifier string) (oauth2.TokenResponse, error)
	CredentialsFromToken(token oauth2.TokenResponse, now time.Time) (security.OAuth2Credentials, error)
}

// LinkedAccountService 管理專案內的 linked account 與 OAuth2 連結流程
type LinkedAccountService struct {
	trace    *telemetry.Trace
	logger   *zap.Logger
	apps     AppStore
	accounts LinkedAccountStore
	projects ProjectStore
	states   OAuth2StateStore
	billing  *BillingService
	config   *config.Configuration
	linker   func(scheme security.OAuth2Scheme) OAuth2Linker
	now      func() time.Time
}

func NewLinkedAccountService(
	trace *telemetry.Trace,
	logger *zap.Logger,
	apps AppStore,
	accounts LinkedAccountStore,
	projects ProjectStore,
	states OAuth2StateStore,
	billing *BillingService,
	config *config.Configuration,
) *LinkedAccountService {
	httpClient := &http.Client{Timeout: config.OAuth2.Timeout()}
	return &LinkedAccountService{
		trace:    trace,
		logger:   logger,
		apps:     apps,
		accounts: accounts,
		projects: projects,
		states:   states,
		billing:  billing,
		config:   config,
		linker: func(scheme security.OAuth2Scheme) OAuth2Linker {
			return oauth2.NewManager(trace, oauth2.ConfigFromScheme(scheme), httpClient)
		},
		now: time.Now,
	}
}

// LinkAccount 建立 api_key 或 no_auth 的連結；credentials 為空代表使用 app 預設
func (s *LinkedAccountService) LinkAccount(ctx context.Context, project *model.Project, req *dto.LinkAccountDto) (_ *dto.LinkedAccountResponseDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if req.SecurityScheme == security.OAuth2 {
		return nil, cErr.BadRequestBody("oauth2 accounts must be linked through the oauth2 flow")
	}
	app, err := s.activeApp(ctx, req.AppName)
	if err != nil {
		return nil, err
	}
	if _, ok := app.SecuritySchemes.Get(req.SecurityScheme); !ok {
		return nil, cErr.BadRequestBody("app " + app.Name + " does not support security scheme " + string(req.SecurityScheme))
	}

	credentials, err := security.DecodeJSON(req.SecurityScheme, req.Credentials)
	if err != nil {
		return nil, cErr.BadRequestBody("invalid credentials: " + err.Error())
	}
	if req.SecurityScheme == security.APIKey && security.IsEmpty(credentials) {
		defaults, err := app.DefaultCredentials(security.APIKey)
		if err != nil || security.IsEmpty(defaults) {
			return nil, cErr.BadRequestBody("app " + app.Name + " has no default api_key credentials; credentials are required")
		}
		credentials = nil
	}
	raw, err := security.Encode(req.SecurityScheme, credentials)
	if err != nil {
		return nil, cErr.InternalServer("encode credentials failed: " + err.Error())
	}

	if err := s.checkLinkedAccountLimit(ctx, project, app.Name, req.LinkedAccountOwnerID); err != nil {
		return nil, err
	}
	account, err := s.accounts.Upsert(ctx, &model.LinkedAccount{
		ProjectID:            project.ID,
		AppName:              app.Name,
		LinkedAccountOwnerID: req.LinkedAccountOwnerID,
		SecurityScheme:       req.SecurityScheme,
		SecurityCredentials:  raw,
	})
	if err != nil {
		return nil, cErr.DatabaseError("mongodb upsert linked account failed")
	}
	return linkedAccountToDto(account), nil
}

// OAuth2Start 產生 PKCE verifier 與簽章 state，回傳 provider 的授權網址
func (s *LinkedAccountService) OAuth2Start(ctx context.Context, project *model.Project, req *dto.OAuth2LinkStartDto) (_ *dto.OAuth2LinkStartResponseDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	app, err := s.activeApp(ctx, req.AppName)
	if err != nil {
		return nil, err
	}
	scheme, err := oauth2Scheme(app)
	if err != nil {
		return nil, err
	}
	if err := s.checkLinkedAccountLimit(ctx, project, app.Name, req.LinkedAccountOwnerID); err != nil {
		return nil, err
	}

	redirectURI := s.config.OAuth2.RedirectURL
	if redirectURI == "" {
		return nil, cErr.InternalServer("oauth2 redirect url is not configured")
	}
	codeVerifier, err := oauth2.NewCodeVerifier()
	if err != nil {
		return nil, cErr.InternalServer("generate code verifier failed")
	}
	ttl := s.config.OAuth2.StateTTL()
	state, stateID, err := oauth2.SignState(s.stateSecret(), oauth2.StateClaims{
		ProjectID:          project.ID.Hex(),
		AppName:            app.Name,
		LinkedAccountOwner: req.LinkedAccountOwnerID,
		RedirectURI:        redirectURI,
		AfterOAuth2LinkURL: req.AfterOAuth2LinkURL,
	}, s.now(), ttl)
	if err != nil {
		return nil, err
	}
	if err := s.states.SaveVerifier(ctx, stateID, codeVerifier, ttl); err != nil {
		return nil, cErr.DatabaseError("redis save oauth2 state failed")
	}

	authorizationURL, err := s.linker(scheme).BuildAuthorizationURL(state, redirectURI, codeVerifier)
	if err != nil {
		return nil, err
	}
	return &dto.OAuth2LinkStartResponseDto{URL: authorizationURL}, nil
}

// OAuth2Callback 驗證 state、交換 token 並寫入 linked account；
// 回傳授權前指定的導向網址（可能為空）
func (s *LinkedAccountService) OAuth2Callback(ctx context.Context, req *dto.OAuth2CallbackDto) (_ *dto.LinkedAccountResponseDto, _ string, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	claims, err := oauth2.ParseState(s.stateSecret(), req.State)
	if err != nil {
		return nil, "", err
	}
	// verifier 只能使用一次，provider 回報錯誤時也一併消耗
	codeVerifier, err := s.states.ConsumeVerifier(ctx, claims.ID)
	if err != nil {
		return nil, "", cErr.DatabaseError("redis consume oauth2 state failed")
	}
	if codeVerifier == "" {
		return nil, "", cErr.InvalidOAuth2State("oauth2 state was already used or has expired")
	}
	if req.Error != "" {
		return nil, "", cErr.OAuth2Error("provider returned error: " + req.Error)
	}
	if req.Code == "" {
		return nil, "", cErr.BadRequestParams("code is required")
	}

	projectID, err := primitive.ObjectIDFromHex(claims.ProjectID)
	if err != nil {
		return nil, "", cErr.InvalidOAuth2State("invalid project in oauth2 state")
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, "", cErr.DatabaseError("mongodb get project failed")
	}
	if project == nil {
		return nil, "", cErr.NotFound("project not found")
	}
	app, err := s.activeApp(ctx, claims.AppName)
	if err != nil {
		return nil, "", err
	}
	scheme, err := oauth2Scheme(app)
	if err != nil {
		return nil, "", err
	}

	linker := s.linker(scheme)
	token, err := linker.ExchangeCodeForToken(ctx, req.Code, claims.RedirectURI, codeVerifier)
	if err != nil {
		return nil, "", err
	}
	credentials, err := linker.CredentialsFromToken(token, s.now())
	if err != nil {
		return nil, "", cErr.OAuth2Error(err.Error())
	}
	if credentials.AccessToken == "" {
		return nil, "", cErr.OAuth2Error("token response has no access_token")
	}
	raw, err := security.Encode(security.OAuth2, credentials)
	if err != nil {
		return nil, "", cErr.InternalServer("encode credentials failed: " + err.Error())
	}

	account, err := s.accounts.Upsert(ctx, &model.LinkedAccount{
		ProjectID:            project.ID,
		AppName:              app.Name,
		LinkedAccountOwnerID: claims.LinkedAccountOwner,
		SecurityScheme:       security.OAuth2,
		SecurityCredentials:  raw,
	})
	if err != nil {
		return nil, "", cErr.DatabaseError("mongodb upsert linked account failed")
	}
	s.logger.Info("oauth2 account linked",
		zap.String("project", project.ID.Hex()),
		zap.String("app", app.Name),
		zap.String("linkedAccountOwnerID", claims.LinkedAccountOwner),
	)
	return linkedAccountToDto(account), claims.AfterOAuth2LinkURL, nil
}

func (s *LinkedAccountService) List(ctx context.Context, project *model.Project, req *dto.ListLinkedAccountsDto) ([]*dto.LinkedAccountResponseDto, error) {
	accounts, err := s.accounts.ListByProject(ctx, project.ID, req.AppName, req.LinkedAccountOwnerID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb list linked accounts failed")
	}
	out := make([]*dto.LinkedAccountResponseDto, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, linkedAccountToDto(account))
	}
	return out, nil
}

func (s *LinkedAccountService) Get(ctx context.Context, project *model.Project, accountID primitive.ObjectID) (*dto.LinkedAccountResponseDto, error) {
	account, err := s.accounts.GetByID(ctx, project.ID, accountID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get linked account failed")
	}
	if account == nil {
		return nil, cErr.NotFound("linked account not found")
	}
	return linkedAccountToDto(account), nil
}

func (s *LinkedAccountService) SetEnabled(ctx context.Context, project *model.Project, accountID primitive.ObjectID, enabled bool) (*dto.LinkedAccountResponseDto, error) {
	if _, err := s.Get(ctx, project, accountID); err != nil {
		return nil, err
	}
	if err := s.accounts.SetEnabled(ctx, project.ID, accountID, enabled); err != nil {
		return nil, cErr.DatabaseError("mongodb update linked account failed")
	}
	return s.Get(ctx, project, accountID)
}

func (s *LinkedAccountService) Delete(ctx context.Context, project *model.Project, accountID primitive.ObjectID) error {
	if _, err := s.Get(ctx, project, accountID); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, project.ID, accountID); err != nil {
		return cErr.DatabaseError("mongodb delete linked account failed")
	}
	return nil
}

// checkLinkedAccountLimit 新增連結時檢查 org 方案的上限；重新授權既有連結不受限，0 代表無上限
func (s *LinkedAccountService) checkLinkedAccountLimit(ctx context.Context, project *model.Project, appName, ownerID string) error {
	existing, err := s.accounts.Get(ctx, project.ID, appName, ownerID)
	if err != nil {
		return cErr.DatabaseError("mongodb get linked account failed")
	}
	if existing != nil {
		return nil
	}
	features, err := s.billing.GetActivePlanFeatures(ctx, project.OrgID)
	if err != nil {
		return err
	}
	if features.LinkedAccounts <= 0 {
		return nil
	}
	projects, err := s.projects.ListByOrg(ctx, project.OrgID)
	if err != nil {
		return cErr.DatabaseError("mongodb list projects failed")
	}
	projectIDs := make([]primitive.ObjectID, 0, len(projects))
	for _, orgProject := range projects {
		projectIDs = append(projectIDs, orgProject.ID)
	}
	count, err := s.accounts.CountByProjects(ctx, projectIDs)
	if err != nil {
		return cErr.DatabaseError("mongodb count linked accounts failed")
	}
	if count >= features.LinkedAccounts {
		return cErr.PlanLimitReached("linked account limit of current plan reached")
	}
	return nil
}

func (s *LinkedAccountService) activeApp(ctx context.Context, name string) (*model.App, error) {
	app, err := s.apps.GetByName(ctx, name)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get app failed")
	}
	if app == nil || !app.Active {
		return nil, cErr.NotFound("app " + name + " not found")
	}
	return app, nil
}

func (s *LinkedAccountService) stateSecret() string {
	if s.config.OAuth2.StateSecret != "" {
		return s.config.OAuth2.StateSecret
	}
	return s.config.App.SecretKey
}

func oauth2Scheme(app *model.App) (security.OAuth2Scheme, error) {
	schemeConfig, ok := app.SecuritySchemes.Get(security.OAuth2)
	if !ok {
		return security.OAuth2Scheme{}, cErr.BadRequestBody("app " + app.Name + " does not support oauth2")
	}
	return schemeConfig.(security.OAuth2Scheme), nil
}

func linkedAccountToDto(account *model.LinkedAccount) *dto.LinkedAccountResponseDto {
	return &dto.LinkedAccountResponseDto{
		ID:                   account.ID.Hex(),
		ProjectID:            account.ProjectID.Hex(),
		AppName:              account.AppName,
		LinkedAccountOwnerID: account.LinkedAccountOwnerID,
		SecurityScheme:       account.SecurityScheme,
		UsesAppDefault:       len(account.SecurityCredentials) == 0 && account.SecurityScheme != security.NoAuth,
		Enabled:              account.Enabled,
		CreatedAt:            account.CreatedAt,
		UpdatedAt:            account.UpdatedAt,
		LastUsedAt:           account.LastUsedAt,
	}
}
