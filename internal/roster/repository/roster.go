package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	rostererrors "slotbook/internal/roster/errors"
	"slotbook/pkg/config"
	mongotx "slotbook/pkg/db/mongo"
	"slotbook/pkg/model"
)

const (
	WeeklyCollectionName    = "WeeklyAvailability"
	ExceptionCollectionName = "AvailabilityExceptions"
)

type mongoRosterRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	weekly     *mongo.Collection
	exceptions *mongo.Collection
	txManager  mongotx.TransactionManager
}

type RosterRepository interface {
	CreateWeeklySlot(ctx context.Context, slot *model.WeeklyAvailabilitySlot) error
	FindWeeklySlotByID(ctx context.Context, id string) (*model.WeeklyAvailabilitySlot, error)
	FindWeeklySlots(ctx context.Context, employeeID string) ([]*model.WeeklyAvailabilitySlot, error)
	FindWeeklySlotsForWeekday(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error)
	UpdateWeeklySlot(ctx context.Context, id string, slot *model.WeeklyAvailabilitySlot) error
	DeleteWeeklySlot(ctx context.Context, id string) error
	CreateException(ctx context.Context, exc *model.AvailabilityException) error
	FindExceptions(ctx context.Context, employeeID string) ([]*model.AvailabilityException, error)
	FindExceptionByDate(ctx context.Context, employeeID string, date string) (*model.AvailabilityException, error)
	DeleteException(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoRosterRepository(cfg *config.Config) RosterRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRosterRepository{
		cfg:        cfg,
		db:         db,
		weekly:     db.Collection(WeeklyCollectionName),
		exceptions: db.Collection(ExceptionCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless we are already inside a
// transaction; a SessionContext cannot be wrapped without breaking
// transaction semantics.
func (r *mongoRosterRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoRosterRepository) CreateWeeklySlot(ctx context.Context, slot *model.WeeklyAvailabilitySlot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	slot.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.weekly.InsertOne(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to create weekly slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRosterRepository) FindWeeklySlotByID(ctx context.Context, id string) (*model.WeeklyAvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rostererrors.ErrInvalidID, id)
	}

	var slot model.WeeklyAvailabilitySlot
	err = r.weekly.FindOne(ctx, bson.M{"_id": objectID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", rostererrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find weekly slot: %w", err)
	}

	return &slot, nil
}

func (r *mongoRosterRepository) FindWeeklySlots(ctx context.Context, employeeID string) ([]*model.WeeklyAvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "weekday", Value: 1},
		{Key: "start_time", Value: 1},
	})

	cursor, err := r.weekly.Find(ctx, bson.M{"employee_id": employeeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.WeeklyAvailabilitySlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode weekly slots: %w", err)
	}
	return slots, nil
}

func (r *mongoRosterRepository) FindWeeklySlotsForWeekday(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"employee_id": employeeID,
		"weekday":     weekday,
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.weekly.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly slots for weekday: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.WeeklyAvailabilitySlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode weekly slots: %w", err)
	}
	return slots, nil
}

func (r *mongoRosterRepository) UpdateWeeklySlot(ctx context.Context, id string, slot *model.WeeklyAvailabilitySlot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", rostererrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"employee_id": slot.EmployeeID,
			"weekday":     slot.Weekday,
			"start_time":  slot.StartTime,
			"end_time":    slot.EndTime,
			"available":   slot.Available,
			"recurring":   slot.Recurring,
		},
	}

	result, err := r.weekly.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update weekly slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", rostererrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoRosterRepository) DeleteWeeklySlot(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", rostererrors.ErrInvalidID, id)
	}

	result, err := r.weekly.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete weekly slot: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", rostererrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoRosterRepository) CreateException(ctx context.Context, exc *model.AvailabilityException) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	exc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.exceptions.InsertOne(ctx, exc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s on %s", rostererrors.ErrDuplicateException, exc.EmployeeID, exc.Date)
		}
		return fmt.Errorf("failed to create exception: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		exc.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRosterRepository) FindExceptions(ctx context.Context, employeeID string) ([]*model.AvailabilityException, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.exceptions.Find(ctx, bson.M{"employee_id": employeeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var excs []*model.AvailabilityException
	if err = cursor.All(ctx, &excs); err != nil {
		return nil, fmt.Errorf("failed to decode exceptions: %w", err)
	}
	return excs, nil
}

func (r *mongoRosterRepository) FindExceptionByDate(ctx context.Context, employeeID string, date string) (*model.AvailabilityException, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"employee_id": employeeID,
		"date":        date,
	}

	var exc model.AvailabilityException
	err := r.exceptions.FindOne(ctx, filter).Decode(&exc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s on %s", rostererrors.ErrNotFound, employeeID, date)
		}
		return nil, fmt.Errorf("failed to find exception: %w", err)
	}

	return &exc, nil
}

func (r *mongoRosterRepository) DeleteException(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", rostererrors.ErrInvalidID, id)
	}

	result, err := r.exceptions.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete exception: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", rostererrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoRosterRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
