package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	"github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
)

const recommendationNotFound = "Recommendation not found"

// RecommendationRepository implements recommendationapp.Repository.
type RecommendationRepository struct {
	collection        *mongo.Collection
	companyCollection string
}

// NewRecommendationRepository binds the recommendations collection; the
// company collection name is used to join company summaries.
func NewRecommendationRepository(db *mongo.Database, collectionName, companyCollection string) *RecommendationRepository {
	return &RecommendationRepository{
		collection:        db.Collection(collectionName),
		companyCollection: companyCollection,
	}
}

// companyLookup joins the referenced company. companyId is stored as a hex
// string, so it is converted before matching; malformed ids join nothing.
func (r *RecommendationRepository) companyLookup() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from": r.companyCollection,
		"let": bson.M{"cid": bson.M{"$convert": bson.M{
			"input":   "$companyId",
			"to":      "objectId",
			"onError": nil,
			"onNull":  nil,
		}}},
		"pipeline": bson.A{
			bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$cid"}}}},
			bson.M{"$project": bson.M{"name": 1, "ticker": 1, "sector": 1, "industry": 1, "esgMetrics": 1}},
		},
		"as": "company",
	}}}
}

func (r *RecommendationRepository) Find(ctx context.Context, userID string, criteria domain.Criteria) ([]domain.Recommendation, error) {
	criteria = criteria.Normalize()
	match := bson.M{"userId": userID}
	if criteria.Category != "" {
		match["category"] = string(criteria.Category)
	}
	if criteria.Status != "" {
		match["status"] = string(criteria.Status)
	}
	direction := -1
	if criteria.SortOrder == "asc" {
		direction = 1
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: criteria.SortBy, Value: direction}, {Key: "_id", Value: direction}}}},
		{{Key: "$skip", Value: skip(criteria.Page, criteria.Limit)}},
		{{Key: "$limit", Value: int64(criteria.Limit)}},
		r.companyLookup(),
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor, mapRecommendationDocument)
}

func (r *RecommendationRepository) FindByID(ctx context.Context, id, userID string) (*domain.Recommendation, error) {
	oid, err := objectID(id, recommendationNotFound)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": oid, "userId": userID}}},
		{{Key: "$limit", Value: 1}},
		r.companyLookup(),
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	recs, err := decodeAll(ctx, cursor, mapRecommendationDocument)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperr.NotFound(recommendationNotFound)
	}
	return &recs[0], nil
}

// Insert stores rec without any uniqueness check and assigns its id.
func (r *RecommendationRepository) Insert(ctx context.Context, rec *domain.Recommendation) error {
	doc := toRecommendationDocument(*rec)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	rec.ID = doc.ID.Hex()
	return nil
}

func (r *RecommendationRepository) Update(ctx context.Context, id, userID string, changes recommendationapp.Changes) (*domain.Recommendation, error) {
	oid, err := objectID(id, recommendationNotFound)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": nowUTC()}
	if changes.Score != nil {
		set["score"] = *changes.Score
	}
	if changes.Feedback != nil {
		set["feedback"] = *changes.Feedback
	}
	if changes.Category != nil {
		set["category"] = string(*changes.Category)
	}
	if changes.Status != nil {
		set["status"] = string(*changes.Status)
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "userId": userID}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperr.NotFound(recommendationNotFound)
	}
	return r.FindByID(ctx, id, userID)
}

func (r *RecommendationRepository) Delete(ctx context.Context, id, userID string) error {
	oid, err := objectID(id, recommendationNotFound)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound(recommendationNotFound)
	}
	return nil
}

type statsTotals struct {
	Total        int     `bson:"total"`
	Active       int     `bson:"active"`
	Archived     int     `bson:"archived"`
	AverageScore float64 `bson:"averageScore"`
}

type statsCategory struct {
	Category     string  `bson:"_id"`
	Count        int     `bson:"count"`
	AverageScore float64 `bson:"averageScore"`
	MinScore     float64 `bson:"minScore"`
	MaxScore     float64 `bson:"maxScore"`
}

type statsFacet struct {
	Totals     []statsTotals   `bson:"totals"`
	ByCategory []statsCategory `bson:"byCategory"`
}

// Stats summarizes userID's recommendations in a single $facet aggregation.
func (r *RecommendationRepository) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	statusCount := func(status domain.Status) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", string(status)}}, 1, 0}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":          nil,
					"total":        bson.M{"$sum": 1},
					"active":       statusCount(domain.StatusActive),
					"archived":     statusCount(domain.StatusArchived),
					"averageScore": bson.M{"$avg": "$score"},
				}},
			},
			"byCategory": bson.A{
				bson.M{"$group": bson.M{
					"_id":          bson.M{"$ifNull": bson.A{"$category", ""}},
					"count":        bson.M{"$sum": 1},
					"averageScore": bson.M{"$avg": "$score"},
					"minScore":     bson.M{"$min": "$score"},
					"maxScore":     bson.M{"$max": "$score"},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.Stats{}, err
	}
	facets, err := decodeAll(ctx, cursor, func(f statsFacet) statsFacet { return f })
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{ByCategory: []domain.CategoryStats{}}
	if len(facets) == 0 {
		return stats, nil
	}
	if len(facets[0].Totals) > 0 {
		t := facets[0].Totals[0]
		stats.Total = t.Total
		stats.Active = t.Active
		stats.Archived = t.Archived
		stats.AverageScore = domain.Round1(t.AverageScore)
	}
	for _, c := range facets[0].ByCategory {
		stats.ByCategory = append(stats.ByCategory, domain.CategoryStats{
			Category:     domain.Category(c.Category),
			Count:        c.Count,
			AverageScore: domain.Round1(c.AverageScore),
			MinScore:     c.MinScore,
			MaxScore:     c.MaxScore,
		})
	}
	return stats, nil
}

func toRecommendationDocument(rec domain.Recommendation) RecommendationDocument {
	status := rec.Status
	if status == "" {
		status = domain.StatusActive
	}
	return RecommendationDocument{
		UserID:    rec.UserID,
		CompanyID: rec.CompanyID,
		Score:     rec.Score,
		Category:  string(rec.Category),
		Status:    string(status),
		Feedback:  rec.Feedback,
		Reason:    rec.Reason,
		Metadata:  MetadataDocument(rec.Metadata),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func mapRecommendationDocument(doc RecommendationDocument) domain.Recommendation {
	rec := domain.Recommendation{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		CompanyID: doc.CompanyID,
		Score:     doc.Score,
		Category:  domain.Category(doc.Category),
		Status:    domain.Status(doc.Status),
		Feedback:  doc.Feedback,
		Reason:    doc.Reason,
		Metadata:  domain.Metadata(doc.Metadata),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if len(doc.Company) > 0 {
		c := doc.Company[0]
		rec.Company = &domain.CompanyRef{
			ID:         c.ID.Hex(),
			Name:       c.Name,
			Ticker:     c.Ticker,
			Sector:     c.Sector,
			Industry:   c.Industry,
			ESGMetrics: catalog.ESGMetrics(c.ESGMetrics),
		}
	}
	return rec
}
