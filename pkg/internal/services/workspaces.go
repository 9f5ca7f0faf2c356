package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"

	localCache "github.com/workbridge/calling/pkg/internal/cache"
	"github.com/workbridge/calling/pkg/internal/database"
	"github.com/workbridge/calling/pkg/internal/models"
)

type workspaceIdentityCacheEntry struct {
	Workspace models.Workspace
	Member    models.WorkspaceMember
}

func GetWorkspaceIdentityCacheKey(workspace string, user uint) string {
	return fmt.Sprintf("workspace-identity-%s#%d", workspace, user)
}

func CacheWorkspaceIdentity(workspace models.Workspace, member models.WorkspaceMember, user uint) {
	if localCache.S == nil {
		return
	}

	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	contx := context.Background()

	_ = marshal.Set(
		contx,
		GetWorkspaceIdentityCacheKey(workspace.Alias, user),
		workspaceIdentityCacheEntry{workspace, member},
		store.WithTags([]string{"workspace-identity", fmt.Sprintf("workspace#%d", workspace.ID), fmt.Sprintf("user#%d", user)}),
	)
}

// GetWorkspaceIdentity resolves the acting user's membership in a workspace.
// A user outside the workspace gets the same not-found as a missing
// workspace, so existence never leaks to outsiders.
func GetWorkspaceIdentity(alias string, user uint) (models.Workspace, models.WorkspaceMember, error) {
	var workspace models.Workspace
	var member models.WorkspaceMember

	if localCache.S != nil {
		cacheManager := cache.New[any](localCache.S)
		marshal := marshaler.New(cacheManager)
		contx := context.Background()

		if val, err := marshal.Get(contx, GetWorkspaceIdentityCacheKey(alias, user), new(workspaceIdentityCacheEntry)); err == nil {
			entry := val.(*workspaceIdentityCacheEntry)
			return entry.Workspace, entry.Member, nil
		}
	}

	workspace, member, err := GetWorkspaceWithMember(alias, user)
	if err == nil {
		CacheWorkspaceIdentity(workspace, member, user)
	}

	return workspace, member, err
}

func GetWorkspaceAliasAvailability(alias string) error {
	if !regexp.MustCompile("^[a-z0-9-]+$").MatchString(alias) {
		return fmt.Errorf("workspace alias should only contains lowercase letters, numbers, and hyphens")
	}
	return nil
}

func GetWorkspaceWithAlias(alias string) (models.Workspace, error) {
	var workspace models.Workspace
	if err := database.C.
		Where(models.Workspace{Alias: alias}).
		Preload("Members").
		Preload("Members.Account").
		First(&workspace).Error; err != nil {
		return workspace, err
	}
	return workspace, nil
}

func GetWorkspaceWithMember(alias string, user uint) (models.Workspace, models.WorkspaceMember, error) {
	var member models.WorkspaceMember

	workspace, err := GetWorkspaceWithAlias(alias)
	if err != nil {
		return workspace, member, err
	}

	if err := database.C.Where(models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		AccountID:   user,
	}).Preload("Account").First(&member).Error; err != nil {
		return workspace, member, fmt.Errorf("workspace principal not found: %v", err.Error())
	}

	return workspace, member, nil
}
