package service

import (
	"toolhub/internal/service/executor"

	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	storeBindings,
	NewHealthService,
	NewBillingService,
	NewQuotaService,
	NewCredentialsResolver,
	executor.NewRESTExecutor,
	wire.Bind(new(FunctionExecutor), new(*executor.RESTExecutor)),
	NewFunctionService,
	NewProjectService,
	NewAPIKeyService,
	NewAppService,
	NewSearchService,
	NewLinkedAccountService,
)
