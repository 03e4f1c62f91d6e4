package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	"github.com/sngm3741/ethical-choice/api/internal/account/domain"
)

const userNotFound = "user not found"

// UserRepository implements the account, notification and search user ports.
type UserRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewUserRepository binds the users collection.
func NewUserRepository(db *mongo.Database, collectionName string) *UserRepository {
	return &UserRepository{
		collection: db.Collection(collectionName),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores u and assigns its id. A duplicate email yields
// accountapp.ErrUserExists.
func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	doc := toUserDocument(*u)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accountapp.ErrUserExists
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id, userNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc UserDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, findErr(err, userNotFound)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := r.update(ctx, id, bson.M{"$set": bson.M{"password": hash}})
	return err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.update(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
	return err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	user, err := r.update(ctx, id, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return nil, accountapp.ErrUserExists
	}
	return user, err
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, id string, prefs map[string]string) (*domain.User, error) {
	return r.update(ctx, id, bson.M{"$set": bson.M{"preferences": prefs}})
}

func (r *UserRepository) UpdateSurveyResponses(ctx context.Context, id string, responses domain.SurveyResponses) (*domain.User, error) {
	doc := toSurveyResponsesDocument(responses)
	return r.update(ctx, id, bson.M{"$set": bson.M{"surveyResponses": doc}})
}

func (r *UserRepository) AddStarred(ctx context.Context, id, companyID string) (*domain.User, error) {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"starredCompanies": companyID}})
}

func (r *UserRepository) RemoveStarred(ctx context.Context, id, companyID string) (*domain.User, error) {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"starredCompanies": companyID}})
}

// SetNotificationsEnabled toggles live delivery.
func (r *UserRepository) SetNotificationsEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.update(ctx, id, bson.M{"$set": bson.M{"notificationsEnabled": enabled}})
	return err
}

// SearchByName matches pattern case-insensitively against user names.
func (r *UserRepository) SearchByName(ctx context.Context, pattern string, limit int) ([]domain.UserSummary, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: pattern, Options: "i"}}
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor, func(doc UserDocument) domain.UserSummary {
		return domain.UserSummary{ID: doc.ID.Hex(), Name: doc.Name, Email: doc.Email}
	})
}

// update applies change plus an updatedAt stamp and returns the new document.
func (r *UserRepository) update(ctx context.Context, id string, change bson.M) (*domain.User, error) {
	oid, err := objectID(id, userNotFound)
	if err != nil {
		return nil, err
	}
	set, _ := change["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		change["$set"] = set
	}
	set["updatedAt"] = r.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc UserDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, change, opts).Decode(&doc); err != nil {
		return nil, findErr(err, userNotFound)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

func toUserDocument(u domain.User) UserDocument {
	doc := UserDocument{
		Name:                 u.Name,
		Email:                domain.NormalizeEmail(u.Email),
		Password:             u.PasswordHash,
		Role:                 string(u.Role),
		StarredCompanies:     append([]string{}, u.StarredCompanies...),
		Preferences:          u.Preferences,
		NotificationsEnabled: u.NotificationsEnabled,
		LastLogin:            u.LastLogin,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
	if u.SurveyResponses != nil {
		sr := toSurveyResponsesDocument(*u.SurveyResponses)
		doc.SurveyResponses = &sr
	}
	return doc
}

func toSurveyResponsesDocument(s domain.SurveyResponses) SurveyResponsesDocument {
	return SurveyResponsesDocument(s)
}

func mapUserDocument(doc UserDocument) domain.User {
	user := domain.User{
		ID:                   doc.ID.Hex(),
		Name:                 doc.Name,
		Email:                doc.Email,
		PasswordHash:         doc.Password,
		Role:                 domain.Role(doc.Role),
		StarredCompanies:     append([]string{}, doc.StarredCompanies...),
		Preferences:          doc.Preferences,
		NotificationsEnabled: doc.NotificationsEnabled,
		LastLogin:            doc.LastLogin,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if doc.SurveyResponses != nil {
		sr := domain.SurveyResponses(*doc.SurveyResponses)
		user.SurveyResponses = &sr
	}
	return user
}
