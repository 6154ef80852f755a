package services

import (
	"context"

	"github.com/google/uuid"

	dataagg "github.com/mioplatform/mio-backend/internal/data/aggregates"
	types "github.com/mioplatform/mio-backend/internal/domain"
	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
	"github.com/mioplatform/mio-backend/internal/progression/rollup"
)

// TacticProgressView pairs an authored tactic with the user's recorded
// signals, when any exist.
type TacticProgressView struct {
	Tactic   types.Tactic          `json:"tactic"`
	Progress *types.TacticProgress `json:"progress,omitempty"`
	Complete bool                  `json:"complete"`
}

type LessonProgressView struct {
	Lesson      types.Lesson         `json:"lesson"`
	Tactics     []TacticProgressView `json:"tactics"`
	ProgressPct float64              `json:"progress_pct"`
	Complete    bool                 `json:"complete"`
}

type PhaseProgressView struct {
	Phase       types.ProgramPhase   `json:"phase"`
	Lessons     []LessonProgressView `json:"lessons"`
	ProgressPct float64              `json:"progress_pct"`
	Complete    bool                 `json:"complete"`
}

type ProgramProgressView struct {
	Program     types.Program       `json:"program"`
	Phases      []PhaseProgressView `json:"phases"`
	ProgressPct float64             `json:"progress_pct"`
	Complete    bool                `json:"complete"`
}

// ProgramProgressService rolls a user's tactic-level gate results up
// through lesson, phase, and program. Percentages are derived on read;
// only tactic_progress rows are stored.
type ProgramProgressService interface {
	GetProgress(ctx context.Context, userID, programID uuid.UUID) (*ProgramProgressView, error)
}

type programProgressService struct {
	log      *logger.Logger
	programs repos.ProgramRepo
	phases   repos.ProgramPhaseRepo
	lessons  repos.LessonRepo
	tactics  repos.TacticRepo
	progress repos.TacticProgressRepo
}

func NewProgramProgressService(
	log *logger.Logger,
	programs repos.ProgramRepo,
	phases repos.ProgramPhaseRepo,
	lessons repos.LessonRepo,
	tactics repos.TacticRepo,
	progress repos.TacticProgressRepo,
) ProgramProgressService {
	return &programProgressService{
		log:      log.With("service", "ProgramProgressService"),
		programs: programs,
		phases:   phases,
		lessons:  lessons,
		tactics:  tactics,
		progress: progress,
	}
}

func (s *programProgressService) GetProgress(ctx context.Context, userID, programID uuid.UUID) (*ProgramProgressView, error) {
	const op = "program_progress.get"
	dbc := dbctx.Context{Ctx: ctx}

	program, err := s.programs.GetByID(dbc, programID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if program == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "program not found", nil)
	}

	phases, err := s.phases.ListByProgram(dbc, programID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	phaseIDs := make([]uuid.UUID, 0, len(phases))
	for _, p := range phases {
		phaseIDs = append(phaseIDs, p.ID)
	}

	lessons, err := s.lessons.ListByPhases(dbc, phaseIDs)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	lessonIDs := make([]uuid.UUID, 0, len(lessons))
	lessonsByPhase := map[uuid.UUID][]*types.Lesson{}
	for _, l := range lessons {
		lessonIDs = append(lessonIDs, l.ID)
		lessonsByPhase[l.PhaseID] = append(lessonsByPhase[l.PhaseID], l)
	}

	tactics, err := s.tactics.ListByLessons(dbc, lessonIDs)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	tacticIDs := make([]uuid.UUID, 0, len(tactics))
	tacticsByLesson := map[uuid.UUID][]*types.Tactic{}
	for _, t := range tactics {
		tacticIDs = append(tacticIDs, t.ID)
		tacticsByLesson[t.LessonID] = append(tacticsByLesson[t.LessonID], t)
	}

	records, err := s.progress.ListByUserTactics(dbc, userID, tacticIDs)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	progressByTactic := map[uuid.UUID]*types.TacticProgress{}
	for _, r := range records {
		progressByTactic[r.TacticID] = r
	}

	view := &ProgramProgressView{Program: *program}
	var programSummary rollup.Summary

	for _, phase := range phases {
		pv := PhaseProgressView{Phase: *phase}
		var phaseSummary rollup.Summary

		for _, lesson := range lessonsByPhase[phase.ID] {
			lv := LessonProgressView{Lesson: *lesson}
			var lessonSummary rollup.Summary

			for _, tactic := range tacticsByLesson[lesson.ID] {
				rec := progressByTactic[tactic.ID]
				complete := rec != nil && rec.AllGatesMet
				lessonSummary.Add(tactic.Required, complete)
				lv.Tactics = append(lv.Tactics, TacticProgressView{
					Tactic:   *tactic,
					Progress: rec,
					Complete: complete,
				})
			}

			lv.ProgressPct = lessonSummary.Percent()
			lv.Complete = lessonSummary.Complete()
			phaseSummary.Add(true, lv.Complete)
			pv.Lessons = append(pv.Lessons, lv)
		}

		pv.ProgressPct = phaseSummary.Percent()
		pv.Complete = phaseSummary.Complete()
		programSummary.Add(true, pv.Complete)
		view.Phases = append(view.Phases, pv)
	}

	view.ProgressPct = programSummary.Percent()
	view.Complete = programSummary.Complete()
	return view, nil
}
