package service

import (
	"context"

	"toolhub/internal/core"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/telemetry"
)

// SearchService 以關鍵字查詢 app 與 function，只回傳啟用中的項目
type SearchService struct {
	trace     *telemetry.Trace
	apps      AppStore
	functions FunctionStore
	accounts  LinkedAccountStore
}

func NewSearchService(trace *telemetry.Trace, apps AppStore, functions FunctionStore, accounts LinkedAccountStore) *SearchService {
	return &SearchService{trace: trace, apps: apps, functions: functions, accounts: accounts}
}

func (s *SearchService) SearchApps(ctx context.Context, project *model.Project, req *dto.SearchAppsDto) (_ []*dto.AppResponseDto, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	limit, offset := req.Page()
	traceMetadata := core.TraceSearchMeta{Intent: req.Intent, Categories: req.Categories, Limit: limit, Offset: offset}
	defer func() { s.trace.ApplyTraceAttributes(span, traceMetadata) }()

	var linked map[string]bool
	if req.AllowedAppsOnly {
		accounts, err := s.accounts.ListByProject(ctx, project.ID, "", "")
		if err != nil {
			return nil, cErr.DatabaseError("mongodb list linked accounts failed")
		}
		linked = make(map[string]bool, len(accounts))
		for _, account := range accounts {
			linked[account.AppName] = true
		}
	}

	apps, err := s.apps.Search(ctx, req.Intent, req.Categories, limit, offset)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb search apps failed")
	}
	out := make([]*dto.AppResponseDto, 0, len(apps))
	for _, app := range apps {
		if linked != nil && !linked[app.Name] {
			continue
		}
		out = append(out, appToDto(app))
	}
	traceMetadata.ResultCount = len(out)
	return out, nil
}

func (s *SearchService) SearchFunctions(ctx context.Context, req *dto.SearchFunctionsDto) (_ []*dto.FunctionResponseDto, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	limit, offset := req.Page()
	traceMetadata := core.TraceSearchMeta{Intent: req.Intent, AppNames: req.AppNames, Limit: limit, Offset: offset}
	defer func() { s.trace.ApplyTraceAttributes(span, traceMetadata) }()

	functions, err := s.functions.Search(ctx, req.Intent, req.AppNames, limit, offset)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb search functions failed")
	}
	out := make([]*dto.FunctionResponseDto, 0, len(functions))
	for _, function := range functions {
		out = append(out, functionToDto(function))
	}
	traceMetadata.ResultCount = len(out)
	return out, nil
}
