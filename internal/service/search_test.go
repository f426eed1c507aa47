package service

import (
	"context"
	"testing"

	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSearchApps(t *testing.T) {
	project := &model.Project{ID: primitive.NewObjectID(), OrgID: "org-1"}
	apps := newMemoryAppStore(
		&model.App{Name: "GITHUB", Description: "code hosting", Categories: []string{"dev"}, Active: true},
		&model.App{Name: "GITLAB", Description: "code hosting", Categories: []string{"dev"}, Active: true},
		&model.App{Name: "SLACK", Description: "chat", Categories: []string{"comms"}, Active: true},
		&model.App{Name: "RETIRED", Description: "code hosting", Active: false},
	)
	accounts := newMemoryLinkedAccountStore(&model.LinkedAccount{
		ProjectID: project.ID, AppName: "GITLAB", LinkedAccountOwnerID: "user-1", SecurityScheme: security.NoAuth,
	})
	service := NewSearchService(&telemetry.Trace{}, apps, newMemoryFunctionStore(), accounts)

	found, err := service.SearchApps(context.Background(), project, &dto.SearchAppsDto{Intent: "code"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"GITHUB", "GITLAB"}, appNames(found))

	found, err = service.SearchApps(context.Background(), project, &dto.SearchAppsDto{Categories: []string{"comms"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"SLACK"}, appNames(found))

	found, err = service.SearchApps(context.Background(), project, &dto.SearchAppsDto{Intent: "code", AllowedAppsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"GITLAB"}, appNames(found))
}

func TestSearchFunctionsByApp(t *testing.T) {
	functions := newMemoryFunctionStore(
		&model.Function{Name: "GITHUB__GET_USER", AppName: "GITHUB", Description: "get user", Active: true},
		&model.Function{Name: "SLACK__POST", AppName: "SLACK", Description: "post message", Active: true},
		&model.Function{Name: "GITHUB__OLD", AppName: "GITHUB", Description: "old user api", Active: false},
	)
	service := NewSearchService(&telemetry.Trace{}, newMemoryAppStore(), functions, newMemoryLinkedAccountStore())

	found, err := service.SearchFunctions(context.Background(), &dto.SearchFunctionsDto{AppNames: []string{"GITHUB"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "GITHUB__GET_USER", found[0].Name)
}

func appNames(apps []*dto.AppResponseDto) []string {
	names := make([]string, 0, len(apps))
	for _, app := range apps {
		names = append(names, app.Name)
	}
	return names
}
