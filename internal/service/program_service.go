package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/casdy/PlanR-sub000/internal/assist"
	"github.com/casdy/PlanR-sub000/internal/catalog"
	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrProgramUntitled  = errors.New("program requires a title")
	ErrDuplicateDayIDs  = errors.New("program contains duplicate day ids")
	ErrGenerationFailed = errors.New("routine generation failed")
)

// --- Service Interface ---
type ProgramService interface {
	GetPrograms(ctx context.Context) ([]domain.Program, error)
	GetProgram(ctx context.Context, id string) (*domain.Program, error)
	SaveProgram(ctx context.Context, userID string, program *domain.Program) (*domain.Program, error)
	DeleteProgram(ctx context.Context, userID, id string) error
	Generate(ctx context.Context, userID, goal string) (*domain.Program, error)
}

// --- Service Implementation ---

// programService orchestrates program CRUD around the durable store: local
// writes first, then a fire-and-forget replica push. The AI generator is
// consulted for authoring; quota exhaustion falls back to deterministic
// assembly from the exercise catalog.
type programService struct {
	programs  repository.ProgramRepository
	coord     *syncer.Coordinator
	generator assist.RoutineGenerator
	catalog   catalog.Catalog
	logger    *log.Logger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	programs repository.ProgramRepository,
	coord *syncer.Coordinator,
	generator assist.RoutineGenerator,
	cat catalog.Catalog,
	logger *log.Logger,
) ProgramService {
	return &programService{
		programs:  programs,
		coord:     coord,
		generator: generator,
		catalog:   cat,
		logger:    logger,
	}
}

func (s *programService) GetPrograms(ctx context.Context) ([]domain.Program, error) {
	return s.programs.GetPrograms(ctx)
}

func (s *programService) GetProgram(ctx context.Context, id string) (*domain.Program, error) {
	program, err := s.programs.GetProgram(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProgramNotFound
	}
	return program, err
}

// SaveProgram validates, versions and stores the program, then pushes it to
// the replica in the background. The local write is the source of truth;
// the push can fail without the caller ever noticing.
func (s *programService) SaveProgram(ctx context.Context, userID string, program *domain.Program) (*domain.Program, error) {
	// 1. Validate
	if program.Title == "" {
		return nil, ErrProgramUntitled
	}
	if !program.HasUniqueDayIDs() {
		return nil, ErrDuplicateDayIDs
	}

	// 2. Key and stamp
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	program.UserID = userID
	allocateMissingIDs(program)

	// 3. Version against what is already stored
	existing, err := s.programs.GetProgram(ctx, program.ID)
	switch {
	case err == nil:
		program.Version = existing.Version + 1
	case errors.Is(err, repository.ErrNotFound):
		if program.Version == 0 {
			program.Version = 1
		}
	default:
		return nil, err
	}

	// 4. Persist locally, then replicate
	if err := s.programs.SaveProgram(ctx, program); err != nil {
		return nil, err
	}
	s.coord.PushProgramAsync(userID, *program)
	return program, nil
}

func (s *programService) DeleteProgram(ctx context.Context, userID, id string) error {
	err := s.programs.DeleteProgram(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProgramNotFound
	}
	if err != nil {
		return err
	}
	s.coord.DeleteProgramAsync(userID, id)
	return nil
}

// === Routine Generation ===

// Generate authors a program for the goal via the AI generator; when the
// generation quota is exhausted it assembles one deterministically from the
// exercise catalog instead. Either way the result is normalized, saved and
// pushed like any user-authored program.
func (s *programService) Generate(ctx context.Context, userID, goal string) (*domain.Program, error) {
	program, err := s.generateFromAssist(ctx, goal)
	if errors.Is(err, assist.ErrQuotaExhausted) {
		s.logger.Printf("WARN: generation quota exhausted, assembling from catalog")
		program, err = s.assembleFromCatalog(ctx, goal)
	}
	if err != nil {
		return nil, err
	}

	normalizeGenerated(program, goal)
	return s.SaveProgram(ctx, userID, program)
}

func (s *programService) generateFromAssist(ctx context.Context, goal string) (*domain.Program, error) {
	routine, err := s.generator.Generate(ctx, goal)
	if err != nil {
		return nil, err
	}
	program, err := routine.Assemble()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return program, nil
}

// fallbackSplit is the fixed weekly layout used when the generator is
// unavailable. Exercises are pulled from the catalog per muscle group.
var fallbackSplit = []struct {
	title   string
	weekday string
	targets []string
}{
	{"Push", "Monday", []string{"chest", "shoulders", "triceps"}},
	{"Pull", "Wednesday", []string{"back", "biceps"}},
	{"Legs", "Friday", []string{"quads", "hamstrings", "calves"}},
}

const exercisesPerTarget = 2

func (s *programService) assembleFromCatalog(ctx context.Context, goal string) (*domain.Program, error) {
	program := &domain.Program{
		Title:       "Catalog Starter Split",
		Description: fmt.Sprintf("Assembled from the exercise catalog for: %s", goal),
	}

	for _, day := range fallbackSplit {
		exercises := make([]domain.Exercise, 0, len(day.targets)*exercisesPerTarget)
		for _, target := range day.targets {
			found, err := s.catalog.Search(ctx, target)
			if err != nil {
				s.logger.Printf("WARN: catalog lookup %q failed: %v", target, err)
				continue
			}
			for i, entry := range found {
				if i == exercisesPerTarget {
					break
				}
				exercises = append(exercises, domain.Exercise{
					ID:      uuid.NewString(),
					Name:    entry.Name,
					Sets:    3,
					Reps:    "8-12",
					RestSec: seconds(90),
					Notes:   entry.TargetMuscle,
				})
			}
		}
		if len(exercises) == 0 {
			continue
		}
		program.Days = append(program.Days, domain.Day{
			ID:          uuid.NewString(),
			Title:       day.title,
			Weekday:     day.weekday,
			Type:        domain.DayTypeStrength,
			DurationMin: 60,
			Exercises:   exercises,
		})
	}
	if len(program.Days) == 0 {
		return nil, fmt.Errorf("%w: catalog assembly produced no days", ErrGenerationFailed)
	}

	program.Days = append(program.Days, domain.Day{
		ID:      uuid.NewString(),
		Title:   "Rest",
		Weekday: "Sunday",
		Type:    domain.DayTypeRest,
	})
	return program, nil
}

// normalizeGenerated makes a generated program safe to store: fresh keys
// where the generator omitted or duplicated them, day order untouched.
func normalizeGenerated(program *domain.Program, goal string) {
	if program.Title == "" {
		program.Title = "Custom Routine"
	}
	if program.Description == "" {
		program.Description = fmt.Sprintf("Generated for: %s", goal)
	}
	program.ID = ""
	program.Version = 0

	seen := make(map[string]struct{}, len(program.Days))
	for i := range program.Days {
		day := &program.Days[i]
		if _, dup := seen[day.ID]; day.ID == "" || dup {
			day.ID = uuid.NewString()
		}
		seen[day.ID] = struct{}{}
		if day.Type == "" {
			day.Type = domain.DayTypeStrength
		}
	}
	allocateMissingIDs(program)
}

// allocateMissingIDs backfills exercise ids so completion tracking always
// has a correlation key.
func allocateMissingIDs(program *domain.Program) {
	for i := range program.Days {
		for j := range program.Days[i].Exercises {
			if program.Days[i].Exercises[j].ID == "" {
				program.Days[i].Exercises[j].ID = uuid.NewString()
			}
			if program.Days[i].Exercises[j].Sets <= 0 {
				program.Days[i].Exercises[j].Sets = 3
			}
		}
	}
}

func seconds(v int) *int { return &v }
