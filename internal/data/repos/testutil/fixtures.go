package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/mioplatform/mio-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: "Test User",
		Role:        "member",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProtocol(tb testing.TB, ctx context.Context, tx *gorm.DB, totalWeeks int) *types.Protocol {
	tb.Helper()
	p := &types.Protocol{
		ID:         uuid.New(),
		Slug:       fmt.Sprintf("protocol-%s", uuid.NewString()[:8]),
		Title:      "Sleep Reset",
		TotalWeeks: totalWeeks,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed protocol: %v", err)
	}
	return p
}

func SeedProtocolTask(tb testing.TB, ctx context.Context, tx *gorm.DB, protocolID uuid.UUID, week, day, sequence int, required bool) *types.ProtocolTask {
	tb.Helper()
	t := &types.ProtocolTask{
		ID:         uuid.New(),
		ProtocolID: protocolID,
		Week:       week,
		Day:        day,
		Sequence:   sequence,
		Title:      fmt.Sprintf("task w%dd%d#%d", week, day, sequence),
		Kind:       "practice",
		Required:   required,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed protocol task: %v", err)
	}
	return t
}

func SeedProgram(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.Program {
	tb.Helper()
	p := &types.Program{
		ID:    uuid.New(),
		Slug:  fmt.Sprintf("program-%s", uuid.NewString()[:8]),
		Title: "Six Week Transformation",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed program: %v", err)
	}
	return p
}

func SeedProgramPhase(tb testing.TB, ctx context.Context, tx *gorm.DB, programID uuid.UUID, index int) *types.ProgramPhase {
	tb.Helper()
	ph := &types.ProgramPhase{
		ID:        uuid.New(),
		ProgramID: programID,
		Index:     index,
		Title:     fmt.Sprintf("phase %d", index),
		Required:  true,
	}
	if err := tx.WithContext(ctx).Create(ph).Error; err != nil {
		tb.Fatalf("seed program phase: %v", err)
	}
	return ph
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, phaseID uuid.UUID, index int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:       uuid.New(),
		PhaseID:  phaseID,
		Index:    index,
		Title:    fmt.Sprintf("lesson %d", index),
		Required: true,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedTactic(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, index int, gateConfig string) *types.Tactic {
	tb.Helper()
	t := &types.Tactic{
		ID:       uuid.New(),
		LessonID: lessonID,
		Index:    index,
		Title:    fmt.Sprintf("tactic %d", index),
		Required: true,
	}
	if gateConfig != "" {
		t.GateConfig = datatypes.JSON([]byte(gateConfig))
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tactic: %v", err)
	}
	return t
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, protocolID uuid.UUID, slot types.AssignmentSlot, startAt *time.Time) *types.Assignment {
	tb.Helper()
	a := &types.Assignment{
		ID:          uuid.New(),
		UserID:      userID,
		ProtocolID:  protocolID,
		Slot:        slot,
		Status:      types.AssignmentActive,
		StartAt:     startAt,
		CurrentWeek: 1,
		CurrentDay:  1,
		AbsoluteDay: 1,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}
