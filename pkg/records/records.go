package records

// Schema names stored in the _schemaName discriminator.
const (
	SchemaAuthorization = "Authorization"
	SchemaInspection    = "Inspection"
	SchemaOtherDocument = "OtherDocument"
)

// Import markers written to importSource.
const (
	SourceMEM = "mem-api"
	SourceEAO = "eao-import"
)

// Project is a local project as read from the projects collection.
type Project struct {
	ID          string `json:"_id,omitempty" bson:"-"`
	Code        string `json:"code" bson:"code"`
	Name        string `json:"name" bson:"name"`
	MemPermitID string `json:"memPermitID,omitempty" bson:"memPermitID,omitempty"`
}

// ExternalProject is the project record served by the MEM API.
type ExternalProject struct {
	Code        string
	Name        string
	MemPermitID string
}

// Document is a single file in the MEM document library.
type Document struct {
	ID          string
	DisplayName string
	Date        string
}

// CollectionDocument is a slot of a collection. Document is nil when the
// slot was present but empty.
type CollectionDocument struct {
	Document *Document
}

// ExternalCollection is a raw MEM collection. It is transformed and
// discarded, never stored as-is.
type ExternalCollection struct {
	Type        string
	ParentType  string
	DisplayName string
	Date        string
	Status      string
	IsForMEM    bool
	IsForENV    bool

	MainDocument   *CollectionDocument
	OtherDocuments []*CollectionDocument
}

// FollowUpDocument is a document reference attached to an authorization
// or an inspection.
type FollowUpDocument struct {
	Name string `json:"name" bson:"name"`
	Ref  string `json:"ref" bson:"ref"`
}

// DatedDocument is a document reference attached to an other-document
// record.
type DatedDocument struct {
	Name string `json:"name" bson:"name"`
	Ref  string `json:"ref" bson:"ref"`
	Date string `json:"date" bson:"date"`
}

type Authorization struct {
	SchemaName           string             `json:"_schemaName" bson:"_schemaName"`
	AuthorizationID      string             `json:"authorizationID" bson:"authorizationID"`
	FollowUpDocuments    []FollowUpDocument `json:"followUpDocuments" bson:"followUpDocuments"`
	AuthorizationSummary string             `json:"authorizationSummary" bson:"authorizationSummary"`
	AuthorizationDate    string             `json:"authorizationDate" bson:"authorizationDate"`
	DocumentStatus       string             `json:"documentStatus" bson:"documentStatus"`
	DocumentType         string             `json:"documentType" bson:"documentType"`
	DocumentName         string             `json:"documentName" bson:"documentName"`
	DocumentURL          string             `json:"documentURL" bson:"documentURL"`
	ActName              string             `json:"actName" bson:"actName"`
	AgencyName           string             `json:"agencyName" bson:"agencyName"`
	AgencyCode           string             `json:"agencyCode" bson:"agencyCode"`
	ProjectCode          string             `json:"projectCode" bson:"projectCode"`
	ProjectName          string             `json:"projectName" bson:"projectName"`
	ProjectID            string             `json:"projectId" bson:"projectId"`
	ImportSource         string             `json:"importSource" bson:"importSource"`
	Version              int                `json:"__v" bson:"__v"`
}

type Inspection struct {
	SchemaName        string             `json:"_schemaName" bson:"_schemaName"`
	AuthorizationID   string             `json:"authorizationID" bson:"authorizationID"`
	FollowUpDocuments []FollowUpDocument `json:"followUpDocuments" bson:"followUpDocuments"`
	DocumentName      string             `json:"documentName" bson:"documentName"`
	DocumentURL       string             `json:"documentURL" bson:"documentURL"`
	RecentFollowUp    string             `json:"recentFollowUp" bson:"recentFollowUp"`
	InspectionSummary string             `json:"inspectionSummary" bson:"inspectionSummary"`
	InspectorInitials string             `json:"inspectorInitials" bson:"inspectorInitials"`
	InspectionDate    string             `json:"inspectionDate" bson:"inspectionDate"`
	InspectionNum     string             `json:"inspectionNum" bson:"inspectionNum"`
	InspectionName    string             `json:"inspectionName" bson:"inspectionName"`
	OrgCode           string             `json:"orgCode" bson:"orgCode"`
	ProjectCode       string             `json:"projectCode" bson:"projectCode"`
	ProjectName       string             `json:"projectName" bson:"projectName"`
	ProjectID         string             `json:"projectId" bson:"projectId"`
	ImportSource      string             `json:"importSource" bson:"importSource"`
	Version           int                `json:"__v" bson:"__v"`
}

type OtherDocument struct {
	SchemaName       string          `json:"_schemaName" bson:"_schemaName"`
	Date             string          `json:"date" bson:"date"`
	Documents        []DatedDocument `json:"documents" bson:"documents"`
	DocumentName     string          `json:"documentName" bson:"documentName"`
	DocumentType     string          `json:"documentType" bson:"documentType"`
	DocumentURL      string          `json:"documentURL" bson:"documentURL"`
	DocumentFileName string          `json:"documentFileName" bson:"documentFileName"`
	Agencies         []string        `json:"agencies" bson:"agencies"`
	Heading          string          `json:"heading" bson:"heading"`
	Filename         string          `json:"filename" bson:"filename"`
	Link             string          `json:"link" bson:"link"`
	Title            string          `json:"title" bson:"title"`
	Source           string          `json:"source" bson:"source"`
	ProjectCode      string          `json:"projectCode" bson:"projectCode"`
	ProjectName      string          `json:"projectName" bson:"projectName"`
	ProjectID        string          `json:"projectId" bson:"projectId"`
	ImportSource     string          `json:"importSource" bson:"importSource"`
	Version          int             `json:"__v" bson:"__v"`
}

// EAODocument is one entry of an EAO export row.
type EAODocument struct {
	Name string
	URL  string
	Date string
}

// EAOCollection is one row of an EAO collections export.
type EAOCollection struct {
	Code      string
	ID        string
	Date      string
	Type      string
	Name      string
	Documents []EAODocument
}
