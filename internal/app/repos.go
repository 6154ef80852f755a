package app

import (
	"gorm.io/gorm"

	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type Repos struct {
	User repos.UserRepo

	Protocol     repos.ProtocolRepo
	ProtocolTask repos.ProtocolTaskRepo
	Program      repos.ProgramRepo
	ProgramPhase repos.ProgramPhaseRepo
	Lesson       repos.LessonRepo
	Tactic       repos.TacticRepo

	Assignment       repos.AssignmentRepo
	TacticProgress   repos.TacticProgressRepo
	CompletionRecord repos.CompletionRecordRepo
	LifecycleEvent   repos.LifecycleEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		Protocol:         repos.NewProtocolRepo(db, log),
		ProtocolTask:     repos.NewProtocolTaskRepo(db, log),
		Program:          repos.NewProgramRepo(db, log),
		ProgramPhase:     repos.NewProgramPhaseRepo(db, log),
		Lesson:           repos.NewLessonRepo(db, log),
		Tactic:           repos.NewTacticRepo(db, log),
		Assignment:       repos.NewAssignmentRepo(db, log),
		TacticProgress:   repos.NewTacticProgressRepo(db, log),
		CompletionRecord: repos.NewCompletionRecordRepo(db, log),
		LifecycleEvent:   repos.NewLifecycleEventRepo(db, log),
	}
}
