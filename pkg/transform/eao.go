package transform

import (
	"time"

	"github.com/bcgov/mmti-sync/pkg/records"
)

const (
	agencyNameEAO        = "Environmental Assessment Office"
	actNameEAO           = "Environmental Assessment Act"
	inspectionNameEAO    = "EAO- (Environmental Assessment Office)"
	typeCertAmendment    = "Certificate Amendment"
	documentTypeEAOCerts = "Certificate"
)

// EAO builds records from rows of an EAO collections export. Now stamps
// documents that carry no date; it defaults to time.Now.
type EAO struct {
	Now func() time.Time
}

func (e EAO) now() string {
	if e.Now == nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return e.Now().UTC().Format(time.RFC3339)
}

func firstURL(c records.EAOCollection) string {
	if len(c.Documents) == 0 {
		return ""
	}
	return c.Documents[0].URL
}

func eaoFollowUps(c records.EAOCollection) []records.FollowUpDocument {
	docs := make([]records.FollowUpDocument, 0, len(c.Documents))
	for _, d := range c.Documents {
		docs = append(docs, records.FollowUpDocument{Name: d.Name, Ref: d.URL})
	}
	return docs
}

func (e EAO) Authorization(p records.Project, c records.EAOCollection) records.Authorization {
	status := statusIssued
	if c.Type == typeCertAmendment {
		status = statusAmended
	}
	return records.Authorization{
		SchemaName:        records.SchemaAuthorization,
		AuthorizationID:   c.ID,
		FollowUpDocuments: eaoFollowUps(c),
		AuthorizationDate: c.Date,
		DocumentStatus:    status,
		DocumentType:      documentTypeEAOCerts,
		DocumentName:      c.Name,
		DocumentURL:       firstURL(c),
		ActName:           actNameEAO,
		AgencyName:        agencyNameEAO,
		AgencyCode:        AgencyEAO,
		ProjectCode:       p.Code,
		ProjectName:       p.Name,
		ProjectID:         p.ID,
		ImportSource:      records.SourceEAO,
	}
}

func (e EAO) Inspection(p records.Project, c records.EAOCollection) records.Inspection {
	return records.Inspection{
		SchemaName:        records.SchemaInspection,
		FollowUpDocuments: eaoFollowUps(c),
		DocumentName:      c.Name,
		DocumentURL:       firstURL(c),
		InspectionDate:    c.Date,
		InspectionName:    inspectionNameEAO,
		ProjectCode:       p.Code,
		ProjectName:       p.Name,
		ProjectID:         p.ID,
		ImportSource:      records.SourceEAO,
	}
}

func (e EAO) OtherDocument(p records.Project, c records.EAOCollection) records.OtherDocument {
	name := c.Name
	if name == "" && len(c.Documents) > 0 {
		name = c.Documents[0].Name
	}

	docs := make([]records.DatedDocument, 0, len(c.Documents))
	for _, d := range c.Documents {
		date := d.Date
		if date == "" {
			date = e.now()
		}
		docs = append(docs, records.DatedDocument{Name: d.Name, Ref: d.URL, Date: date})
	}

	return records.OtherDocument{
		SchemaName:   records.SchemaOtherDocument,
		Date:         c.Date,
		Documents:    docs,
		DocumentName: name,
		DocumentType: c.Type,
		Agencies:     []string{},
		ProjectCode:  p.Code,
		ProjectName:  p.Name,
		ProjectID:    p.ID,
		ImportSource: records.SourceEAO,
	}
}
