package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SurveyResponsesDocument is the embedded onboarding questionnaire.
type SurveyResponsesDocument struct {
	KeyValues                  []string          `bson:"keyValues,omitempty"`
	ValueImportance            map[string]int    `bson:"valueImportance,omitempty"`
	ProductCategories          map[string]string `bson:"productCategories,omitempty"`
	PurchaseFactors            []string          `bson:"purchaseFactors,omitempty"`
	KnowledgeRating            map[string]int    `bson:"knowledgeRating,omitempty"`
	EthicalSupport             string            `bson:"ethicalSupport,omitempty"`
	StopSupporting             []string          `bson:"stopSupporting,omitempty"`
	EthicalPurchasingFrequency string            `bson:"ethicalPurchasingFrequency,omitempty"`
	ValueAlignmentImportance   int               `bson:"valueAlignmentImportance,omitempty"`
	SpecificCompanies          []string          `bson:"specificCompanies,omitempty"`
}

// UserDocument is the users collection schema.
type UserDocument struct {
	ID                   primitive.ObjectID       `bson:"_id"`
	Name                 string                   `bson:"name"`
	Email                string                   `bson:"email"`
	Password             string                   `bson:"password"`
	Role                 string                   `bson:"role"`
	SurveyResponses      *SurveyResponsesDocument `bson:"surveyResponses,omitempty"`
	StarredCompanies     []string                 `bson:"starredCompanies"`
	Preferences          map[string]string        `bson:"preferences,omitempty"`
	NotificationsEnabled bool                     `bson:"notificationsEnabled"`
	LastLogin            *time.Time               `bson:"lastLogin,omitempty"`
	CreatedAt            time.Time                `bson:"createdAt"`
	UpdatedAt            time.Time                `bson:"updatedAt"`
}

// ProfileDocument is the company's descriptive profile.
type ProfileDocument struct {
	Description string `bson:"description,omitempty"`
	LogoURL     string `bson:"logoUrl,omitempty"`
	Website     string `bson:"website,omitempty"`
}

// FinancialsDocument holds reported figures.
type FinancialsDocument struct {
	Revenue          *float64   `bson:"revenue,omitempty"`
	NetIncome        *float64   `bson:"netIncome,omitempty"`
	TotalAssets      *float64   `bson:"totalAssets,omitempty"`
	TotalLiabilities *float64   `bson:"totalLiabilities,omitempty"`
	MarketCap        *float64   `bson:"marketCap,omitempty"`
	EPS              *float64   `bson:"eps,omitempty"`
	LastUpdated      *time.Time `bson:"lastUpdated,omitempty"`
}

// BoardMemberDocument is one board seat.
type BoardMemberDocument struct {
	Name        string `bson:"name"`
	Position    string `bson:"position,omitempty"`
	Independent bool   `bson:"independent"`
}

// GovernanceDocument holds leadership data.
type GovernanceDocument struct {
	CEOName         string                `bson:"ceoName,omitempty"`
	CEOCompensation *float64              `bson:"ceoCompensation,omitempty"`
	BoardMembers    []BoardMemberDocument `bson:"boardMembers,omitempty"`
}

// ESGDocument holds the 0..100 ESG scores.
type ESGDocument struct {
	Environmental *float64 `bson:"environmental,omitempty"`
	Social        *float64 `bson:"social,omitempty"`
	Governance    *float64 `bson:"governance,omitempty"`
}

// ProceedingDocument is one legal proceeding.
type ProceedingDocument struct {
	Title       string     `bson:"title"`
	Status      string     `bson:"status,omitempty"`
	FiledAt     *time.Time `bson:"filedAt,omitempty"`
	Description string     `bson:"description,omitempty"`
}

// LegalDocument groups proceedings and risk factors.
type LegalDocument struct {
	ActiveProceedings []ProceedingDocument `bson:"activeProceedings,omitempty"`
	RiskFactors       []string             `bson:"riskFactors,omitempty"`
}

// CompanyDocument is the companies collection schema.
type CompanyDocument struct {
	ID                  primitive.ObjectID `bson:"_id"`
	Name                string             `bson:"name"`
	CIK                 string             `bson:"cik,omitempty"`
	Ticker              string             `bson:"ticker,omitempty"`
	Sector              string             `bson:"sector"`
	Industry            string             `bson:"industry,omitempty"`
	Tags                []string           `bson:"tags,omitempty"`
	Profile             ProfileDocument    `bson:"profile"`
	Financials          FinancialsDocument `bson:"financials"`
	Governance          GovernanceDocument `bson:"governance"`
	ESGMetrics          ESGDocument        `bson:"esgMetrics"`
	SustainabilityScore *float64           `bson:"sustainabilityScore,omitempty"`
	Ratings             map[string]float64 `bson:"ratings,omitempty"`
	Legal               LegalDocument      `bson:"legal"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

// MetadataDocument records how a recommendation was produced.
type MetadataDocument struct {
	Source    string `bson:"source,omitempty"`
	Algorithm string `bson:"algorithm,omitempty"`
	Version   string `bson:"version,omitempty"`
}

// RecommendationDocument is the recommendations collection schema. CompanyID
// is stored as a hex string and joined with $lookup.
type RecommendationDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	CompanyID string             `bson:"companyId"`
	Score     float64            `bson:"score"`
	Category  string             `bson:"category,omitempty"`
	Status    string             `bson:"status"`
	Feedback  string             `bson:"feedback,omitempty"`
	Reason    string             `bson:"reason,omitempty"`
	Metadata  MetadataDocument   `bson:"metadata"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`

	// Company is populated by the $lookup stage only.
	Company []CompanyDocument `bson:"company,omitempty"`
}

// NotificationDocument is the notifications collection schema.
type NotificationDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	Type      string             `bson:"type"`
	Read      bool               `bson:"read"`
	ReadAt    *time.Time         `bson:"readAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// FailedDeliveryDocument keeps a notification whose live push failed.
type FailedDeliveryDocument struct {
	ID             primitive.ObjectID   `bson:"_id"`
	NotificationID string               `bson:"notificationId"`
	UserID         string               `bson:"userId"`
	Notification   NotificationDocument `bson:"notification"`
	Error          string               `bson:"error"`
	CreatedAt      time.Time            `bson:"createdAt"`
}

// OptionDocument is one multiple-choice option.
type OptionDocument struct {
	Text  string `bson:"text"`
	Value string `bson:"value"`
}

// QuestionDocument is one survey question.
type QuestionDocument struct {
	ID           string           `bson:"id"`
	QuestionText string           `bson:"questionText"`
	QuestionType string           `bson:"questionType"`
	Options      []OptionDocument `bson:"options,omitempty"`
	IsRequired   bool             `bson:"isRequired"`
	Order        int              `bson:"order"`
}

// AnswerDocument answers one question.
type AnswerDocument struct {
	QuestionID string `bson:"questionId"`
	Answer     any    `bson:"answer"`
}

// ResponseDocument is one user's survey submission.
type ResponseDocument struct {
	UserID      string           `bson:"userId"`
	Answers     []AnswerDocument `bson:"answers"`
	SubmittedAt time.Time        `bson:"submittedAt"`
}

// SurveyDocument is the surveys collection schema.
type SurveyDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description,omitempty"`
	CreatedBy      string             `bson:"createdBy"`
	Status         string             `bson:"status"`
	StartDate      *time.Time         `bson:"startDate,omitempty"`
	EndDate        *time.Time         `bson:"endDate,omitempty"`
	TargetAudience string             `bson:"targetAudience"`
	Questions      []QuestionDocument `bson:"questions"`
	Responses      []ResponseDocument `bson:"responses"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// ReplyDocument is a nested comment reply.
type ReplyDocument struct {
	UserID    string    `bson:"userId"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

// CommentDocument is the comments collection schema.
type CommentDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	PostID    string             `bson:"postId"`
	Content   string             `bson:"content"`
	Likes     []string           `bson:"likes"`
	Replies   []ReplyDocument    `bson:"replies"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}
