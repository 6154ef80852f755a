package repos

import (
	"gorm.io/gorm"

	"github.com/mioplatform/mio-backend/internal/data/repos/curriculum"
	"github.com/mioplatform/mio-backend/internal/data/repos/progression"
	"github.com/mioplatform/mio-backend/internal/data/repos/user"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ProtocolRepo = curriculum.ProtocolRepo
type ProtocolTaskRepo = curriculum.ProtocolTaskRepo
type ProgramRepo = curriculum.ProgramRepo
type ProgramPhaseRepo = curriculum.ProgramPhaseRepo
type LessonRepo = curriculum.LessonRepo
type TacticRepo = curriculum.TacticRepo

type AssignmentRepo = progression.AssignmentRepo
type TacticProgressRepo = progression.TacticProgressRepo
type CompletionRecordRepo = progression.CompletionRecordRepo
type LifecycleEventRepo = progression.LifecycleEventRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewProtocolRepo(db *gorm.DB, baseLog *logger.Logger) ProtocolRepo {
	return curriculum.NewProtocolRepo(db, baseLog)
}
func NewProtocolTaskRepo(db *gorm.DB, baseLog *logger.Logger) ProtocolTaskRepo {
	return curriculum.NewProtocolTaskRepo(db, baseLog)
}
func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return curriculum.NewProgramRepo(db, baseLog)
}
func NewProgramPhaseRepo(db *gorm.DB, baseLog *logger.Logger) ProgramPhaseRepo {
	return curriculum.NewProgramPhaseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return curriculum.NewLessonRepo(db, baseLog)
}
func NewTacticRepo(db *gorm.DB, baseLog *logger.Logger) TacticRepo {
	return curriculum.NewTacticRepo(db, baseLog)
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return progression.NewAssignmentRepo(db, baseLog)
}
func NewTacticProgressRepo(db *gorm.DB, baseLog *logger.Logger) TacticProgressRepo {
	return progression.NewTacticProgressRepo(db, baseLog)
}
func NewCompletionRecordRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRecordRepo {
	return progression.NewCompletionRecordRepo(db, baseLog)
}
func NewLifecycleEventRepo(db *gorm.DB, baseLog *logger.Logger) LifecycleEventRepo {
	return progression.NewLifecycleEventRepo(db, baseLog)
}
