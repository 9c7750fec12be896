// internal/syncer/mongo/mirror.go
package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

const (
	programCollectionName = "programs"
	logCollectionName     = "workout_logs"
)

// programDoc is the remote program row: identity plus an opaque payload.
// The mirror never inspects program internals.
type programDoc struct {
	ID      string `bson:"_id"`
	UserID  string `bson:"userId"`
	Payload string `bson:"payload"`
}

// logDoc mirrors every WorkoutLog field as an individual column.
type logDoc struct {
	ID                string                `bson:"_id"`
	SessionID         string                `bson:"sessionId"`
	UserID            string                `bson:"userId"`
	ProgramID         string                `bson:"programId"`
	DayID             string                `bson:"dayId"`
	Date              time.Time             `bson:"date"`
	CompletedAt       *time.Time            `bson:"completedAt,omitempty"`
	TotalSeconds      int                   `bson:"totalSeconds"`
	CompletedIDs      []string              `bson:"completedIds"`
	CompletedNames    []string              `bson:"completedNames"`
	LastExerciseIndex *int                  `bson:"lastExerciseIndex,omitempty"`
	IsPaused          bool                  `bson:"isPaused"`
	Events            []domain.SessionEvent `bson:"events"`
}

// mongoMirror implements syncer.Mirror.
type mongoMirror struct {
	programs *mongo.Collection
	logs     *mongo.Collection
}

// NewMirror creates a Mirror backed by the given MongoDB database.
func NewMirror(db *mongo.Database) syncer.Mirror {
	return &mongoMirror{
		programs: db.Collection(programCollectionName),
		logs:     db.Collection(logCollectionName),
	}
}

func (m *mongoMirror) PullPrograms(ctx context.Context, userID string) ([]domain.Program, error) {
	cursor, err := m.programs.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []programDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	programs := make([]domain.Program, 0, len(docs))
	for _, doc := range docs {
		var p domain.Program
		if err := json.Unmarshal([]byte(doc.Payload), &p); err != nil {
			return nil, fmt.Errorf("decode program payload %s: %w", doc.ID, err)
		}
		// The envelope is authoritative for identity.
		p.ID = doc.ID
		p.UserID = doc.UserID
		programs = append(programs, p)
	}
	return programs, nil
}

func (m *mongoMirror) PullLogs(ctx context.Context, userID string, limit int) ([]domain.WorkoutLog, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		findOptions = findOptions.SetLimit(int64(limit))
	}

	cursor, err := m.logs.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []logDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	logs := make([]domain.WorkoutLog, 0, len(docs))
	for _, doc := range docs {
		logs = append(logs, domain.WorkoutLog{
			ID:                doc.ID,
			SessionID:         doc.SessionID,
			UserID:            doc.UserID,
			ProgramID:         doc.ProgramID,
			DayID:             doc.DayID,
			Date:              doc.Date,
			CompletedAt:       doc.CompletedAt,
			TotalSeconds:      doc.TotalSeconds,
			CompletedIDs:      doc.CompletedIDs,
			CompletedNames:    doc.CompletedNames,
			LastExerciseIndex: doc.LastExerciseIndex,
			IsPaused:          doc.IsPaused,
			Events:            doc.Events,
		})
	}
	return logs, nil
}

func (m *mongoMirror) PushProgram(ctx context.Context, userID string, program *domain.Program) error {
	payload, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("encode program %s: %w", program.ID, err)
	}
	doc := programDoc{
		ID:      program.ID,
		UserID:  userID,
		Payload: string(payload),
	}
	_, err = m.programs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	return err
}

func (m *mongoMirror) DeleteProgram(ctx context.Context, id string) error {
	_, err := m.programs.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m *mongoMirror) PushLog(ctx context.Context, userID string, log *domain.WorkoutLog) error {
	doc := logDoc{
		ID:                log.ID,
		SessionID:         log.SessionID,
		UserID:            userID,
		ProgramID:         log.ProgramID,
		DayID:             log.DayID,
		Date:              log.Date,
		CompletedAt:       log.CompletedAt,
		TotalSeconds:      log.TotalSeconds,
		CompletedIDs:      log.CompletedIDs,
		CompletedNames:    log.CompletedNames,
		LastExerciseIndex: log.LastExerciseIndex,
		IsPaused:          log.IsPaused,
		Events:            log.Events,
	}
	_, err := m.logs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	return err
}

func (m *mongoMirror) DeleteLog(ctx context.Context, id string) error {
	_, err := m.logs.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// EnsureMirrorIndexes creates the userId indexes both pull queries depend on.
// Safe to call on every startup.
func EnsureMirrorIndexes(ctx context.Context, db *mongo.Database) error {
	userIndex := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}

	if _, err := db.Collection(programCollectionName).Indexes().CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("create program index: %w", err)
	}
	dateIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	}
	if _, err := db.Collection(logCollectionName).Indexes().CreateOne(ctx, dateIndex); err != nil {
		return fmt.Errorf("create log index: %w", err)
	}
	return nil
}
