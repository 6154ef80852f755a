// Package seed loads curriculum definitions from YAML into the catalog
// tables. Seeding is idempotent at the slug level: a protocol or program
// whose slug already exists is left untouched.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mioplatform/mio-backend/internal/data/repos"
	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
	"github.com/mioplatform/mio-backend/internal/progression/gates"
)

type File struct {
	Protocols []ProtocolDef `yaml:"protocols"`
	Programs  []ProgramDef  `yaml:"programs"`
}

type ProtocolDef struct {
	Slug       string         `yaml:"slug"`
	Title      string         `yaml:"title"`
	Summary    string         `yaml:"summary"`
	Category   string         `yaml:"category"`
	TotalWeeks int            `yaml:"total_weeks"`
	Metadata   map[string]any `yaml:"metadata"`
	Tasks      []TaskDef      `yaml:"tasks"`
}

type TaskDef struct {
	Week     int    `yaml:"week"`
	Day      int    `yaml:"day"`
	Sequence int    `yaml:"sequence"`
	Title    string `yaml:"title"`
	Kind     string `yaml:"kind"`
	Optional bool   `yaml:"optional"`
}

type ProgramDef struct {
	Slug     string         `yaml:"slug"`
	Title    string         `yaml:"title"`
	Metadata map[string]any `yaml:"metadata"`
	Phases   []PhaseDef     `yaml:"phases"`
}

type PhaseDef struct {
	Title    string      `yaml:"title"`
	Optional bool        `yaml:"optional"`
	Lessons  []LessonDef `yaml:"lessons"`
}

type LessonDef struct {
	Title    string      `yaml:"title"`
	Optional bool        `yaml:"optional"`
	Tactics  []TacticDef `yaml:"tactics"`
}

type TacticDef struct {
	Title      string    `yaml:"title"`
	Optional   bool      `yaml:"optional"`
	TotalSteps int       `yaml:"total_steps"`
	Gates      []GateDef `yaml:"gates"`
}

type GateDef struct {
	Name      string  `yaml:"name"`
	Optional  bool    `yaml:"optional"`
	Threshold float64 `yaml:"threshold"`
}

type Seeder struct {
	log       *logger.Logger
	db        *gorm.DB
	protocols repos.ProtocolRepo
	tasks     repos.ProtocolTaskRepo
	programs  repos.ProgramRepo
	phases    repos.ProgramPhaseRepo
	lessons   repos.LessonRepo
	tactics   repos.TacticRepo
}

func NewSeeder(
	db *gorm.DB,
	baseLog *logger.Logger,
	protocols repos.ProtocolRepo,
	tasks repos.ProtocolTaskRepo,
	programs repos.ProgramRepo,
	phases repos.ProgramPhaseRepo,
	lessons repos.LessonRepo,
	tactics repos.TacticRepo,
) *Seeder {
	return &Seeder{
		log:       baseLog.With("component", "Seeder"),
		db:        db,
		protocols: protocols,
		tasks:     tasks,
		programs:  programs,
		phases:    phases,
		lessons:   lessons,
		tactics:   tactics,
	}
}

// Run loads one YAML file and writes everything new inside a single
// transaction, so a bad definition never leaves a half-seeded tree.
func (s *Seeder) Run(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	if err := validate(&f); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for i := range f.Protocols {
			if err := s.seedProtocol(dbc, &f.Protocols[i]); err != nil {
				return err
			}
		}
		for i := range f.Programs {
			if err := s.seedProgram(dbc, &f.Programs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func validate(f *File) error {
	for _, p := range f.Protocols {
		if p.Slug == "" || p.Title == "" {
			return fmt.Errorf("protocol needs slug and title (slug=%q)", p.Slug)
		}
		if p.TotalWeeks < 1 || p.TotalWeeks > 52 {
			return fmt.Errorf("protocol %q: total_weeks %d out of range 1-52", p.Slug, p.TotalWeeks)
		}
		for _, t := range p.Tasks {
			if t.Week < 1 || t.Week > p.TotalWeeks {
				return fmt.Errorf("protocol %q task %q: week %d out of range", p.Slug, t.Title, t.Week)
			}
			if t.Day < 1 || t.Day > 7 {
				return fmt.Errorf("protocol %q task %q: day %d out of range", p.Slug, t.Title, t.Day)
			}
		}
	}
	for _, p := range f.Programs {
		if p.Slug == "" || p.Title == "" {
			return fmt.Errorf("program needs slug and title (slug=%q)", p.Slug)
		}
		for _, ph := range p.Phases {
			for _, l := range ph.Lessons {
				for _, t := range l.Tactics {
					for _, g := range t.Gates {
						if !gates.Known(g.Name) {
							return fmt.Errorf("program %q tactic %q: unknown gate %q", p.Slug, t.Title, g.Name)
						}
					}
				}
			}
		}
	}
	return nil
}

func (s *Seeder) seedProtocol(dbc dbctx.Context, def *ProtocolDef) error {
	existing, err := s.protocols.GetBySlug(dbc, def.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Info("protocol already seeded", "slug", def.Slug)
		return nil
	}

	meta, err := toJSON(def.Metadata)
	if err != nil {
		return fmt.Errorf("protocol %q: %w", def.Slug, err)
	}

	created, err := s.protocols.Create(dbc, []*types.Protocol{{
		Slug:       def.Slug,
		Title:      def.Title,
		Summary:    def.Summary,
		Category:   def.Category,
		TotalWeeks: def.TotalWeeks,
		Metadata:   meta,
	}})
	if err != nil {
		return err
	}
	protocol := created[0]

	taskRows := make([]*types.ProtocolTask, 0, len(def.Tasks))
	for _, t := range def.Tasks {
		kind := t.Kind
		if kind == "" {
			kind = "practice"
		}
		taskRows = append(taskRows, &types.ProtocolTask{
			ProtocolID: protocol.ID,
			Week:       t.Week,
			Day:        t.Day,
			Sequence:   t.Sequence,
			Title:      t.Title,
			Kind:       kind,
			Required:   !t.Optional,
		})
	}
	if len(taskRows) > 0 {
		if _, err := s.tasks.Create(dbc, taskRows); err != nil {
			return err
		}
	}

	s.log.Info("seeded protocol", "slug", def.Slug, "tasks", len(taskRows))
	return nil
}

func (s *Seeder) seedProgram(dbc dbctx.Context, def *ProgramDef) error {
	existing, err := s.programs.GetBySlug(dbc, def.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Info("program already seeded", "slug", def.Slug)
		return nil
	}

	meta, err := toJSON(def.Metadata)
	if err != nil {
		return fmt.Errorf("program %q: %w", def.Slug, err)
	}

	created, err := s.programs.Create(dbc, []*types.Program{{
		Slug:     def.Slug,
		Title:    def.Title,
		Metadata: meta,
	}})
	if err != nil {
		return err
	}
	program := created[0]

	tacticCount := 0
	for pi, phaseDef := range def.Phases {
		phases, err := s.phases.Create(dbc, []*types.ProgramPhase{{
			ProgramID: program.ID,
			Index:     pi,
			Title:     phaseDef.Title,
			Required:  !phaseDef.Optional,
		}})
		if err != nil {
			return err
		}
		phase := phases[0]

		for li, lessonDef := range phaseDef.Lessons {
			lessonRows, err := s.lessons.Create(dbc, []*types.Lesson{{
				PhaseID:  phase.ID,
				Index:    li,
				Title:    lessonDef.Title,
				Required: !lessonDef.Optional,
			}})
			if err != nil {
				return err
			}
			lesson := lessonRows[0]

			tacticRows := make([]*types.Tactic, 0, len(lessonDef.Tactics))
			for ti, tacticDef := range lessonDef.Tactics {
				gateCfg, err := gateConfig(tacticDef.Gates)
				if err != nil {
					return fmt.Errorf("program %q tactic %q: %w", def.Slug, tacticDef.Title, err)
				}
				tacticRows = append(tacticRows, &types.Tactic{
					LessonID:   lesson.ID,
					Index:      ti,
					Title:      tacticDef.Title,
					Required:   !tacticDef.Optional,
					TotalSteps: tacticDef.TotalSteps,
					GateConfig: gateCfg,
				})
			}
			if len(tacticRows) > 0 {
				if _, err := s.tactics.Create(dbc, tacticRows); err != nil {
					return err
				}
				tacticCount += len(tacticRows)
			}
		}
	}

	s.log.Info("seeded program", "slug", def.Slug, "tactics", tacticCount)
	return nil
}

func gateConfig(defs []GateDef) (datatypes.JSON, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	specs := make([]gates.Spec, 0, len(defs))
	for _, g := range defs {
		specs = append(specs, gates.Spec{
			Name:      g.Name,
			Required:  !g.Optional,
			Threshold: g.Threshold,
		})
	}
	raw, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("encode gate config: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func toJSON(m map[string]any) (datatypes.JSON, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return datatypes.JSON(raw), nil
}
