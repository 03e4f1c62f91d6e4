package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	surveyapp "github.com/sngm3741/ethical-choice/api/internal/survey/application"
	"github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

const surveyNotFound = "Survey not found"

// SurveyRepository implements surveyapp.Repository.
type SurveyRepository struct {
	collection *mongo.Collection
}

// NewSurveyRepository binds the surveys collection.
func NewSurveyRepository(db *mongo.Database, collectionName string) *SurveyRepository {
	return &SurveyRepository{collection: db.Collection(collectionName)}
}

func (r *SurveyRepository) Insert(ctx context.Context, s *domain.Survey) error {
	doc := toSurveyDocument(*s)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*domain.Survey, error) {
	oid, err := objectID(id, surveyNotFound)
	if err != nil {
		return nil, err
	}
	var doc SurveyDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, findErr(err, surveyNotFound)
	}
	s := mapSurveyDocument(doc)
	return &s, nil
}

// Update writes everything except responses, which only AddResponse touches.
// The write applies only while the stored status is still from.
func (r *SurveyRepository) Update(ctx context.Context, s domain.Survey, from domain.Status) error {
	oid, err := objectID(s.ID, surveyNotFound)
	if err != nil {
		return err
	}
	doc := toSurveyDocument(s)
	set := bson.M{
		"title":          doc.Title,
		"description":    doc.Description,
		"status":         doc.Status,
		"startDate":      doc.StartDate,
		"endDate":        doc.EndDate,
		"targetAudience": doc.TargetAudience,
		"questions":      doc.Questions,
		"updatedAt":      doc.UpdatedAt,
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "status": string(from)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.statusConflict(ctx, s.ID, from)
	}
	return nil
}

// statusConflict explains a guarded write that matched nothing: the survey
// is gone, or its status moved away from the expected one.
func (r *SurveyRepository) statusConflict(ctx context.Context, id string, expected domain.Status) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case current.Status == domain.StatusClosed:
		return domain.ErrAlreadyClosed
	case expected == domain.StatusDraft:
		return domain.ErrNotDraft
	default:
		return domain.ErrNotPublished
	}
}

// AddResponse pushes resp only while the survey is published and has no
// response from the same user, so concurrent submissions cannot slip past
// the state checks done in memory.
func (r *SurveyRepository) AddResponse(ctx context.Context, id string, resp domain.Response) error {
	oid, err := objectID(id, surveyNotFound)
	if err != nil {
		return err
	}
	filter := bson.M{
		"_id":              oid,
		"status":           string(domain.StatusPublished),
		"responses.userId": bson.M{"$ne": resp.UserID},
	}
	update := bson.M{
		"$push": bson.M{"responses": toResponseDocument(resp)},
		"$set":  bson.M{"updatedAt": resp.SubmittedAt},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != domain.StatusPublished {
		return domain.ErrNotPublished
	}
	return domain.ErrAlreadyResponded
}

// Delete removes a survey only while it is still a draft.
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, surveyNotFound)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "status": string(domain.StatusDraft)})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		err := r.statusConflict(ctx, id, domain.StatusDraft)
		if errors.Is(err, domain.ErrAlreadyClosed) {
			return domain.ErrNotDraft
		}
		return err
	}
	return nil
}

// List pages surveys newest first. Without CreatedBy, drafts are excluded.
func (r *SurveyRepository) List(ctx context.Context, filter surveyapp.Filter, paging surveyapp.Paging) ([]domain.Survey, int64, error) {
	mongoFilter := bson.M{}
	if filter.CreatedBy != "" {
		mongoFilter["createdBy"] = filter.CreatedBy
	} else {
		mongoFilter["status"] = bson.M{"$ne": string(domain.StatusDraft)}
	}
	if filter.Status != "" {
		mongoFilter["status"] = string(filter.Status)
	}

	total, err := r.collection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip(paging.Page, paging.Limit)).
		SetLimit(int64(paging.Limit))
	cursor, err := r.collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, 0, err
	}
	surveys, err := decodeAll(ctx, cursor, mapSurveyDocument)
	if err != nil {
		return nil, 0, err
	}
	return surveys, total, nil
}

func toSurveyDocument(s domain.Survey) SurveyDocument {
	doc := SurveyDocument{
		Title:          s.Title,
		Description:    s.Description,
		CreatedBy:      s.CreatedBy,
		Status:         string(s.Status),
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		TargetAudience: string(s.TargetAudience),
		Questions:      make([]QuestionDocument, 0, len(s.Questions)),
		Responses:      make([]ResponseDocument, 0, len(s.Responses)),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	for _, q := range s.Questions {
		qd := QuestionDocument{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: string(q.QuestionType),
			IsRequired:   q.IsRequired,
			Order:        q.Order,
		}
		for _, o := range q.Options {
			qd.Options = append(qd.Options, OptionDocument(o))
		}
		doc.Questions = append(doc.Questions, qd)
	}
	for _, resp := range s.Responses {
		doc.Responses = append(doc.Responses, toResponseDocument(resp))
	}
	return doc
}

func toResponseDocument(resp domain.Response) ResponseDocument {
	doc := ResponseDocument{
		UserID:      resp.UserID,
		Answers:     make([]AnswerDocument, 0, len(resp.Answers)),
		SubmittedAt: resp.SubmittedAt,
	}
	for _, a := range resp.Answers {
		doc.Answers = append(doc.Answers, AnswerDocument(a))
	}
	return doc
}

func mapSurveyDocument(doc SurveyDocument) domain.Survey {
	s := domain.Survey{
		ID:             doc.ID.Hex(),
		Title:          doc.Title,
		Description:    doc.Description,
		CreatedBy:      doc.CreatedBy,
		Status:         domain.Status(doc.Status),
		StartDate:      doc.StartDate,
		EndDate:        doc.EndDate,
		TargetAudience: domain.Audience(doc.TargetAudience),
		Questions:      make([]domain.Question, 0, len(doc.Questions)),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	for _, q := range doc.Questions {
		question := domain.Question{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: domain.QuestionType(q.QuestionType),
			IsRequired:   q.IsRequired,
			Order:        q.Order,
		}
		for _, o := range q.Options {
			question.Options = append(question.Options, domain.Option(o))
		}
		s.Questions = append(s.Questions, question)
	}
	for _, rd := range doc.Responses {
		resp := domain.Response{
			UserID:      rd.UserID,
			Answers:     make([]domain.Answer, 0, len(rd.Answers)),
			SubmittedAt: rd.SubmittedAt,
		}
		for _, a := range rd.Answers {
			resp.Answers = append(resp.Answers, domain.Answer{QuestionID: a.QuestionID, Answer: plainValue(a.Answer)})
		}
		s.Responses = append(s.Responses, resp)
	}
	s.ResponseCount = len(s.Responses)
	return s
}

// plainValue turns driver container types into maps and slices so answers
// encode as ordinary JSON.
func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plainValue(val)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plainValue(val)
		}
		return out
	case int32:
		return int64(t)
	default:
		return v
	}
}
