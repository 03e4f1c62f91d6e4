package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	commentapp "github.com/sngm3741/ethical-choice/api/internal/comment/application"
	"github.com/sngm3741/ethical-choice/api/internal/comment/domain"
)

const commentNotFound = "Comment not found"

// CommentRepository implements commentapp.Repository.
type CommentRepository struct {
	collection *mongo.Collection
}

// NewCommentRepository binds the comments collection.
func NewCommentRepository(db *mongo.Database, collectionName string) *CommentRepository {
	return &CommentRepository{collection: db.Collection(collectionName)}
}

func (r *CommentRepository) Insert(ctx context.Context, c *domain.Comment) error {
	doc := toCommentDocument(*c)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, err := objectID(id, commentNotFound)
	if err != nil {
		return nil, err
	}
	var doc CommentDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, findErr(err, commentNotFound)
	}
	c := mapCommentDocument(doc)
	return &c, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string, paging commentapp.Paging) ([]domain.Comment, int64, error) {
	filter := bson.M{"postId": postID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip(paging.Page, paging.Limit)).
		SetLimit(int64(paging.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	comments, err := decodeAll(ctx, cursor, mapCommentDocument)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepository) AddLike(ctx context.Context, id, userID string) (*domain.Comment, error) {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *CommentRepository) RemoveLike(ctx context.Context, id, userID string) (*domain.Comment, error) {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *CommentRepository) AddReply(ctx context.Context, id string, reply domain.Reply) (*domain.Comment, error) {
	return r.update(ctx, id, bson.M{"$push": bson.M{"replies": ReplyDocument(reply)}})
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, commentNotFound)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound(commentNotFound)
	}
	return nil
}

func (r *CommentRepository) update(ctx context.Context, id string, change bson.M) (*domain.Comment, error) {
	oid, err := objectID(id, commentNotFound)
	if err != nil {
		return nil, err
	}
	change["$set"] = bson.M{"updatedAt": nowUTC()}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc CommentDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, change, opts).Decode(&doc); err != nil {
		return nil, findErr(err, commentNotFound)
	}
	c := mapCommentDocument(doc)
	return &c, nil
}

func toCommentDocument(c domain.Comment) CommentDocument {
	doc := CommentDocument{
		UserID:    c.UserID,
		PostID:    c.PostID,
		Content:   c.Content,
		Likes:     append([]string{}, c.Likes...),
		Replies:   make([]ReplyDocument, 0, len(c.Replies)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, reply := range c.Replies {
		doc.Replies = append(doc.Replies, ReplyDocument(reply))
	}
	return doc
}

func mapCommentDocument(doc CommentDocument) domain.Comment {
	c := domain.Comment{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		PostID:    doc.PostID,
		Content:   doc.Content,
		Likes:     append([]string{}, doc.Likes...),
		Replies:   make([]domain.Reply, 0, len(doc.Replies)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, reply := range doc.Replies {
		c.Replies = append(c.Replies, domain.Reply(reply))
	}
	return c
}
