package mongo

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	catalogapp "github.com/sngm3741/ethical-choice/api/internal/catalog/application"
	"github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
)

const companyNotFound = "company not found"

// ErrCompanyNameTaken is returned when a write collides with the unique name index.
var ErrCompanyNameTaken = apperr.Validation("Company name already exists")

// CompanyRepository implements the catalog repository and the company
// lookups used by profiles and scoring.
type CompanyRepository struct {
	collection *mongo.Collection
}

// NewCompanyRepository binds the companies collection.
func NewCompanyRepository(db *mongo.Database, collectionName string) *CompanyRepository {
	return &CompanyRepository{collection: db.Collection(collectionName)}
}

// List returns one page of companies sorted by name plus the total match count.
func (r *CompanyRepository) List(ctx context.Context, filter catalogapp.Filter, paging catalogapp.Paging) ([]domain.Company, int64, error) {
	clauses := make([]bson.M, 0)
	if filter.Sector != "" {
		clauses = append(clauses, bson.M{"sector": filter.Sector})
	}
	if filter.Industry != "" {
		clauses = append(clauses, bson.M{"industry": filter.Industry})
	}
	if filter.Tag != "" {
		clauses = append(clauses, bson.M{"tags": filter.Tag})
	}
	if filter.Keyword != "" {
		regex := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Keyword), Options: "i"}
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"name": regex},
			bson.M{"ticker": regex},
		}})
	}
	mongoFilter := bson.M{}
	if len(clauses) == 1 {
		mongoFilter = clauses[0]
	} else if len(clauses) > 1 {
		mongoFilter["$and"] = clauses
	}

	total, err := r.collection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(skip(paging.Page, paging.Limit)).
		SetLimit(int64(paging.Limit))
	cursor, err := r.collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, 0, err
	}
	companies, err := decodeAll(ctx, cursor, mapCompanyDocument)
	if err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// ListAll returns the whole catalog for scoring runs.
func (r *CompanyRepository) ListAll(ctx context.Context) ([]domain.Company, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor, mapCompanyDocument)
}

func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*domain.Company, error) {
	oid, err := objectID(id, companyNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByIDs returns the companies that exist among ids, in name order.
func (r *CompanyRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Company, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Company{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor, mapCompanyDocument)
}

func (r *CompanyRepository) FindByCIK(ctx context.Context, cik string) (*domain.Company, error) {
	return r.findOne(ctx, bson.M{"cik": cik})
}

func (r *CompanyRepository) findOne(ctx context.Context, filter bson.M) (*domain.Company, error) {
	var doc CompanyDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, findErr(err, companyNotFound)
	}
	company := mapCompanyDocument(doc)
	return &company, nil
}

// Insert stores a new company and assigns its id.
func (r *CompanyRepository) Insert(ctx context.Context, c *domain.Company) error {
	doc := toCompanyDocument(*c)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCompanyNameTaken
		}
		return err
	}
	c.ID = doc.ID.Hex()
	return nil
}

// Replace overwrites the company with c.ID.
func (r *CompanyRepository) Replace(ctx context.Context, c domain.Company) error {
	oid, err := objectID(c.ID, companyNotFound)
	if err != nil {
		return err
	}
	doc := toCompanyDocument(c)
	doc.ID = oid
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCompanyNameTaken
		}
		return err
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound(companyNotFound)
	}
	return nil
}

// UpsertByCIK stores c keyed by its CIK. A company without an id gets a new one.
func (r *CompanyRepository) UpsertByCIK(ctx context.Context, c domain.Company) (*domain.Company, error) {
	doc := toCompanyDocument(c)
	filter := bson.M{"cik": c.CIK}
	if c.ID != "" {
		oid, err := objectID(c.ID, companyNotFound)
		if err != nil {
			return nil, err
		}
		doc.ID = oid
		filter = bson.M{"_id": oid}
	} else {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = nowUTC()
	}
	if _, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCompanyNameTaken
		}
		return nil, err
	}
	stored := mapCompanyDocument(doc)
	return &stored, nil
}

// SearchByName matches pattern case-insensitively against company names.
func (r *CompanyRepository) SearchByName(ctx context.Context, pattern string, limit int) ([]domain.Company, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: pattern, Options: "i"}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor, mapCompanyDocument)
}

func toCompanyDocument(c domain.Company) CompanyDocument {
	doc := CompanyDocument{
		Name:                c.Name,
		CIK:                 c.CIK,
		Ticker:              c.Ticker,
		Sector:              c.Sector,
		Industry:            c.Industry,
		Tags:                append([]string{}, c.Tags...),
		Profile:             ProfileDocument(c.Profile),
		Financials:          FinancialsDocument(c.Financials),
		ESGMetrics:          ESGDocument(c.ESGMetrics),
		SustainabilityScore: c.SustainabilityScore,
		Ratings:             c.Ratings,
		Governance: GovernanceDocument{
			CEOName:         c.Governance.CEOName,
			CEOCompensation: c.Governance.CEOCompensation,
		},
		Legal: LegalDocument{
			RiskFactors: append([]string{}, c.Legal.RiskFactors...),
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, m := range c.Governance.BoardMembers {
		doc.Governance.BoardMembers = append(doc.Governance.BoardMembers, BoardMemberDocument(m))
	}
	for _, p := range c.Legal.ActiveProceedings {
		doc.Legal.ActiveProceedings = append(doc.Legal.ActiveProceedings, ProceedingDocument(p))
	}
	return doc
}

func mapCompanyDocument(doc CompanyDocument) domain.Company {
	c := domain.Company{
		ID:                  doc.ID.Hex(),
		Name:                doc.Name,
		CIK:                 doc.CIK,
		Ticker:              doc.Ticker,
		Sector:              doc.Sector,
		Industry:            doc.Industry,
		Tags:                append([]string{}, doc.Tags...),
		Profile:             domain.Profile(doc.Profile),
		Financials:          domain.Financials(doc.Financials),
		ESGMetrics:          domain.ESGMetrics(doc.ESGMetrics),
		SustainabilityScore: doc.SustainabilityScore,
		Ratings:             doc.Ratings,
		Governance: domain.Governance{
			CEOName:         doc.Governance.CEOName,
			CEOCompensation: doc.Governance.CEOCompensation,
		},
		Legal: domain.Legal{
			RiskFactors: append([]string{}, doc.Legal.RiskFactors...),
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, m := range doc.Governance.BoardMembers {
		c.Governance.BoardMembers = append(c.Governance.BoardMembers, domain.BoardMember(m))
	}
	for _, p := range doc.Legal.ActiveProceedings {
		c.Legal.ActiveProceedings = append(c.Legal.ActiveProceedings, domain.Proceeding(p))
	}
	return c
}
