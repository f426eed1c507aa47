package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"toolhub/internal/core"
	fluentdModel "toolhub/internal/database/fluentd/model"
	"toolhub/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store down")

type memoryPlanStore struct {
	mu    sync.Mutex
	plans map[string]*model.Plan
}

func newMemoryPlanStore(plans ...*model.Plan) *memoryPlanStore {
	store := &memoryPlanStore{plans: map[string]*model.Plan{}}
	for _, plan := range plans {
		_, _ = store.Upsert(context.Background(), plan)
	}
	return store
}

func (s *memoryPlanStore) Upsert(_ context.Context, plan *model.Plan) (*model.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.plans[plan.Name]; ok {
		plan.ID = existing.ID
	} else if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	stored := *plan
	s.plans[plan.Name] = &stored
	return &stored, nil
}

func (s *memoryPlanStore) GetByID(_ context.Context, planID primitive.ObjectID) (*model.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, plan := range s.plans {
		if plan.ID == planID {
			return plan, nil
		}
	}
	return nil, nil
}

func (s *memoryPlanStore) GetByName(_ context.Context, name string) (*model.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans[name], nil
}

func (s *memoryPlanStore) List(_ context.Context) ([]*model.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		out = append(out, plan)
	}
	return out, nil
}

type memorySubscriptionStore struct {
	mu            sync.Mutex
	subscriptions map[string]*model.Subscription
	err           error
}

func newMemorySubscriptionStore() *memorySubscriptionStore {
	return &memorySubscriptionStore{subscriptions: map[string]*model.Subscription{}}
}

func (s *memorySubscriptionStore) GetActiveByOrg(_ context.Context, orgID string) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	subscription, ok := s.subscriptions[orgID]
	if !ok {
		return nil, nil
	}
	if subscription.Status != core.SubscriptionActive && subscription.Status != core.SubscriptionTrialing {
		return nil, nil
	}
	return subscription, nil
}

func (s *memorySubscriptionStore) Upsert(_ context.Context, subscription *model.Subscription) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *subscription
	if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	s.subscriptions[subscription.OrgID] = &stored
	return &stored, nil
}

type memoryProjectStore struct {
	mu       sync.Mutex
	projects map[primitive.ObjectID]*model.Project
}

func newMemoryProjectStore(projects ...*model.Project) *memoryProjectStore {
	store := &memoryProjectStore{projects: map[primitive.ObjectID]*model.Project{}}
	for _, project := range projects {
		_, _ = store.Create(context.Background(), project)
	}
	return store
}

func (s *memoryProjectStore) Create(_ context.Context, project *model.Project) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	stored := *project
	s.projects[project.ID] = &stored
	return &stored, nil
}

func (s *memoryProjectStore) GetByID(_ context.Context, projectID primitive.ObjectID) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects[projectID], nil
}

func (s *memoryProjectStore) ListByOrg(_ context.Context, orgID string) ([]*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Project
	for _, project := range s.projects {
		if project.OrgID == orgID {
			out = append(out, project)
		}
	}
	return out, nil
}

func (s *memoryProjectStore) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	projects, _ := s.ListByOrg(ctx, orgID)
	return int64(len(projects)), nil
}

type memoryAppStore struct {
	mu   sync.Mutex
	apps map[string]*model.App
	// SetDefaultCredentials 失敗注入
	setDefaultErr error
}

func newMemoryAppStore(apps ...*model.App) *memoryAppStore {
	store := &memoryAppStore{apps: map[string]*model.App{}}
	for _, app := range apps {
		_, _ = store.Upsert(context.Background(), app)
	}
	return store
}

func (s *memoryAppStore) Upsert(_ context.Context, app *model.App) (*model.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *app
	if existing, ok := s.apps[app.Name]; ok {
		stored.ID = existing.ID
		stored.DefaultSecurityCredentials = existing.DefaultSecurityCredentials
	} else if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	s.apps[app.Name] = &stored
	return &stored, nil
}

func (s *memoryAppStore) GetByName(_ context.Context, name string) (*model.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[name]
	if !ok {
		return nil, nil
	}
	copied := *app
	return &copied, nil
}

func (s *memoryAppStore) Search(_ context.Context, intent string, categories []string, limit, offset int64) ([]*model.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.App
	for _, app := range s.apps {
		if !app.Active {
			continue
		}
		if intent != "" && !containsFold(app.Name+" "+app.Description, intent) {
			continue
		}
		if len(categories) > 0 && !overlaps(app.Categories, categories) {
			continue
		}
		out = append(out, app)
	}
	return window(out, limit, offset), nil
}

func (s *memoryAppStore) SetDefaultCredentials(_ context.Context, name, scheme string, credentials bson.Raw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setDefaultErr != nil {
		return s.setDefaultErr
	}
	app, ok := s.apps[name]
	if !ok {
		return errors.New("app not found")
	}
	if app.DefaultSecurityCredentials == nil {
		app.DefaultSecurityCredentials = map[string]bson.Raw{}
	}
	app.DefaultSecurityCredentials[scheme] = credentials
	return nil
}

type memoryFunctionStore struct {
	mu        sync.Mutex
	functions map[string]*model.Function
}

func newMemoryFunctionStore(functions ...*model.Function) *memoryFunctionStore {
	store := &memoryFunctionStore{functions: map[string]*model.Function{}}
	for _, function := range functions {
		_ = store.Upsert(context.Background(), function)
	}
	return store
}

func (s *memoryFunctionStore) Upsert(_ context.Context, function *model.Function) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *function
	s.functions[function.Name] = &stored
	return nil
}

func (s *memoryFunctionStore) GetByName(_ context.Context, name string) (*model.Function, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.functions[name], nil
}

func (s *memoryFunctionStore) ListByApp(_ context.Context, appName string, activeOnly bool) ([]*model.Function, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Function
	for _, function := range s.functions {
		if function.AppName == appName && (!activeOnly || function.Active) {
			out = append(out, function)
		}
	}
	return out, nil
}

func (s *memoryFunctionStore) Search(_ context.Context, intent string, appNames []string, limit, offset int64) ([]*model.Function, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Function
	for _, function := range s.functions {
		if !function.Active {
			continue
		}
		if intent != "" && !containsFold(function.Name+" "+function.Description, intent) {
			continue
		}
		if len(appNames) > 0 && !overlaps([]string{function.AppName}, appNames) {
			continue
		}
		out = append(out, function)
	}
	return window(out, limit, offset), nil
}

type memoryLinkedAccountStore struct {
	mu        sync.Mutex
	accounts  map[primitive.ObjectID]*model.LinkedAccount
	updateErr error
}

func newMemoryLinkedAccountStore(accounts ...*model.LinkedAccount) *memoryLinkedAccountStore {
	store := &memoryLinkedAccountStore{accounts: map[primitive.ObjectID]*model.LinkedAccount{}}
	for _, account := range accounts {
		_, _ = store.Upsert(context.Background(), account)
	}
	return store
}

func (s *memoryLinkedAccountStore) Upsert(_ context.Context, account *model.LinkedAccount) (*model.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.ProjectID == account.ProjectID && existing.AppName == account.AppName && existing.LinkedAccountOwnerID == account.LinkedAccountOwnerID {
			existing.SecurityScheme = account.SecurityScheme
			existing.SecurityCredentials = account.SecurityCredentials
			existing.Enabled = true
			copied := *existing
			return &copied, nil
		}
	}
	stored := *account
	if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	stored.Enabled = true
	s.accounts[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (s *memoryLinkedAccountStore) Get(_ context.Context, projectID primitive.ObjectID, appName, ownerID string) (*model.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.ProjectID == projectID && account.AppName == appName && account.LinkedAccountOwnerID == ownerID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryLinkedAccountStore) GetByID(_ context.Context, projectID, accountID primitive.ObjectID) (*model.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok || account.ProjectID != projectID {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (s *memoryLinkedAccountStore) ListByProject(_ context.Context, projectID primitive.ObjectID, appName, ownerID string) ([]*model.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.LinkedAccount
	for _, account := range s.accounts {
		if account.ProjectID != projectID {
			continue
		}
		if appName != "" && account.AppName != appName {
			continue
		}
		if ownerID != "" && account.LinkedAccountOwnerID != ownerID {
			continue
		}
		copied := *account
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memoryLinkedAccountStore) CountByProjects(_ context.Context, projectIDs []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, account := range s.accounts {
		for _, projectID := range projectIDs {
			if account.ProjectID == projectID {
				count++
			}
		}
	}
	return count, nil
}

func (s *memoryLinkedAccountStore) UpdateCredentials(_ context.Context, accountID primitive.ObjectID, credentials bson.Raw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	account, ok := s.accounts[accountID]
	if !ok {
		return errors.New("linked account not found")
	}
	account.SecurityCredentials = credentials
	return nil
}

func (s *memoryLinkedAccountStore) SetEnabled(_ context.Context, projectID, accountID primitive.ObjectID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok || account.ProjectID != projectID {
		return errors.New("linked account not found")
	}
	account.Enabled = enabled
	return nil
}

func (s *memoryLinkedAccountStore) TouchLastUsed(_ context.Context, accountID primitive.ObjectID, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[accountID]; ok {
		account.LastUsedAt = &usedAt
	}
	return nil
}

func (s *memoryLinkedAccountStore) Delete(_ context.Context, projectID, accountID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok || account.ProjectID != projectID {
		return errors.New("linked account not found")
	}
	delete(s.accounts, accountID)
	return nil
}

// stored 直接取得目前保存的紀錄
func (s *memoryLinkedAccountStore) stored(accountID primitive.ObjectID) *model.LinkedAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *s.accounts[accountID]
	return &copied
}

type memoryAPIKeyStore struct {
	mu   sync.Mutex
	keys map[primitive.ObjectID]*model.APIKey
}

func newMemoryAPIKeyStore() *memoryAPIKeyStore {
	return &memoryAPIKeyStore{keys: map[primitive.ObjectID]*model.APIKey{}}
}

func (s *memoryAPIKeyStore) Create(_ context.Context, apiKey *model.APIKey) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *apiKey
	s.keys[apiKey.ID] = &stored
	copied := stored
	return &copied, nil
}

func (s *memoryAPIKeyStore) GetByID(_ context.Context, apiKeyID primitive.ObjectID) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[apiKeyID]
	if !ok {
		return nil, nil
	}
	copied := *key
	return &copied, nil
}

func (s *memoryAPIKeyStore) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.APIKey
	for _, key := range s.keys {
		if key.ProjectID == projectID {
			copied := *key
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memoryAPIKeyStore) UpdateStatus(_ context.Context, projectID, apiKeyID primitive.ObjectID, status core.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[apiKeyID]
	if !ok || key.ProjectID != projectID {
		return errors.New("api key not found")
	}
	key.Status = status
	return nil
}

func (s *memoryAPIKeyStore) UpdateLastUsed(_ context.Context, apiKeyID primitive.ObjectID, lastUsedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.keys[apiKeyID]; ok {
		key.LastUsedAt = &lastUsedAt
	}
	return nil
}

type memoryOAuth2StateStore struct {
	mu        sync.Mutex
	verifiers map[string]string
}

func newMemoryOAuth2StateStore() *memoryOAuth2StateStore {
	return &memoryOAuth2StateStore{verifiers: map[string]string{}}
}

func (s *memoryOAuth2StateStore) SaveVerifier(_ context.Context, stateID, codeVerifier string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verifiers[stateID]; ok {
		return errors.New("state already exists")
	}
	s.verifiers[stateID] = codeVerifier
	return nil
}

func (s *memoryOAuth2StateStore) ConsumeVerifier(_ context.Context, stateID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verifier := s.verifiers[stateID]
	delete(s.verifiers, stateID)
	return verifier, nil
}

type recordingUsageLogger struct {
	mu        sync.Mutex
	functions []fluentdModel.FunctionUsageLog
	quotas    []fluentdModel.QuotaUsageLog
}

func (l *recordingUsageLogger) LogFunctionUsage(_ context.Context, usage fluentdModel.FunctionUsageLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.functions = append(l.functions, usage)
	return nil
}

func (l *recordingUsageLogger) LogQuotaUsage(_ context.Context, usage fluentdModel.QuotaUsageLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quotas = append(l.quotas, usage)
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func overlaps(values, wanted []string) bool {
	for _, value := range values {
		for _, w := range wanted {
			if value == w {
				return true
			}
		}
	}
	return false
}

func window[T any](items []T, limit, offset int64) []T {
	if offset >= int64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
