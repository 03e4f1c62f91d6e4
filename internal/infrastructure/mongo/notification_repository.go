package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
	"github.com/sngm3741/ethical-choice/api/internal/notification/domain"
)

const notificationNotFound = "Notification not found"

// NotificationRepository implements notificationapp.Repository.
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository binds the notifications collection.
func NewNotificationRepository(db *mongo.Database, collectionName string) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection(collectionName)}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	doc := toNotificationDocument(*n)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	n.ID = doc.ID.Hex()
	return nil
}

// List returns one page ordered by createdAt descending and the total count
// for the same filter.
func (r *NotificationRepository) List(ctx context.Context, userID string, query notificationapp.ListQuery) ([]domain.Notification, int64, error) {
	filter := bson.M{"userId": userID}
	if query.UnreadOnly {
		filter["read"] = false
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip(query.Page, query.Limit)).
		SetLimit(int64(query.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	items, err := decodeAll(ctx, cursor, mapNotificationDocument)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) (*domain.Notification, error) {
	oid, err := objectID(id, notificationNotFound)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"read": true, "readAt": at, "updatedAt": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc NotificationDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "userId": userID}, update, opts).Decode(&doc); err != nil {
		return nil, findErr(err, notificationNotFound)
	}
	n := mapNotificationDocument(doc)
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	update := bson.M{"$set": bson.M{"read": true, "readAt": at, "updatedAt": at}}
	result, err := r.collection.UpdateMany(ctx, bson.M{"userId": userID, "read": false}, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	oid, err := objectID(id, notificationNotFound)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound(notificationNotFound)
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}

// FailedDeliveryRepository records notifications whose live push failed.
type FailedDeliveryRepository struct {
	collection *mongo.Collection
}

// NewFailedDeliveryRepository binds the failed deliveries collection.
func NewFailedDeliveryRepository(db *mongo.Database, collectionName string) *FailedDeliveryRepository {
	return &FailedDeliveryRepository{collection: db.Collection(collectionName)}
}

// RecordFailure implements notificationapp.FailureRecorder.
func (r *FailedDeliveryRepository) RecordFailure(ctx context.Context, n domain.Notification, cause error) error {
	doc := FailedDeliveryDocument{
		ID:             primitive.NewObjectID(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Notification:   toNotificationDocument(n),
		CreatedAt:      nowUTC(),
	}
	if oid, err := primitive.ObjectIDFromHex(n.ID); err == nil {
		doc.Notification.ID = oid
	}
	if cause != nil {
		doc.Error = cause.Error()
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func toNotificationDocument(n domain.Notification) NotificationDocument {
	return NotificationDocument{
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func mapNotificationDocument(doc NotificationDocument) domain.Notification {
	return domain.Notification{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		Title:     doc.Title,
		Message:   doc.Message,
		Type:      domain.Type(doc.Type),
		Read:      doc.Read,
		ReadAt:    doc.ReadAt,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
