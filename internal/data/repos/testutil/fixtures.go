package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBrain(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Brain {
	tb.Helper()
	b := &types.Brain{
		ID:     uuid.New(),
		Name:   name,
		UserID: userID,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed brain: %v", err)
	}
	return b
}

// SeedKnowledge inserts a minimal local-sourced file item. Pass a parent to
// hang it in a tree.
func SeedKnowledge(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, fileName string, parentID *uuid.UUID) *types.Knowledge {
	tb.Helper()
	k := &types.Knowledge{
		ID:       uuid.New(),
		ParentID: parentID,
		FileName: fileName,
		Status:   types.StatusCreated,
		Source:   types.SourceLocal,
		UserID:   userID,
	}
	k.SourceLink = userID.String() + "/" + k.ID.String()
	if err := tx.WithContext(ctx).Create(k).Error; err != nil {
		tb.Fatalf("seed knowledge: %v", err)
	}
	return k
}

func SeedFolder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string, parentID *uuid.UUID) *types.Knowledge {
	tb.Helper()
	k := &types.Knowledge{
		ID:       uuid.New(),
		ParentID: parentID,
		FileName: name,
		IsFolder: true,
		Status:   types.StatusCreated,
		Source:   types.SourceLocal,
		UserID:   userID,
	}
	if err := tx.WithContext(ctx).Create(k).Error; err != nil {
		tb.Fatalf("seed folder: %v", err)
	}
	return k
}
