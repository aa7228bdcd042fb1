// Package transform maps external collections onto the application's
// authorization, inspection and other-document schemas.
package transform

import (
	"regexp"
	"strings"

	"github.com/bcgov/mmti-sync/pkg/records"
)

// Agency details written on MEM and ENV records.
const (
	AgencyMEM = "MEM"
	AgencyENV = "ENV"
	AgencyEAO = "EAO"

	agencyNameMEM = "Ministry of Energy and Mines"
	agencyNameENV = "Ministry of Environment"
	actNameMEM    = "Mines Act"
	actNameENV    = "Environmental Management Act"

	inspectionPrefixMEM = "EMPR-"
	inspectionPrefixENV = "ENV-"
	inspectionSuffixMEM = " (Ministry of Energy, Mines and Petroleum Resources)"
	inspectionSuffixENV = " (Ministry of Environment)"

	typePermitAmendment = "Permit Amendment"
	statusAmended       = "Amended"
	statusIssued        = "Issued"
)

// envDisplayName splits "<permit id> - <document name>".
var envDisplayName = regexp.MustCompile(`^(.+) - (.+)$`)

// DocumentURL returns the fetch URL of the document held by slot, or ""
// when the slot is missing or empty.
func DocumentURL(base string, slot *records.CollectionDocument) string {
	if slot == nil || slot.Document == nil {
		return ""
	}
	return strings.TrimRight(base, "/") + "/document/" + slot.Document.ID + "/fetch"
}

func documentName(slot *records.CollectionDocument) string {
	if slot == nil || slot.Document == nil {
		return ""
	}
	return slot.Document.DisplayName
}

func documentDate(slot *records.CollectionDocument) string {
	if slot == nil || slot.Document == nil {
		return ""
	}
	return slot.Document.Date
}

// MEM builds records from MEM collections. DocumentBase is the API root
// that document fetch URLs hang off.
type MEM struct {
	DocumentBase string
}

func (m MEM) followUps(c records.ExternalCollection) []records.FollowUpDocument {
	docs := make([]records.FollowUpDocument, 0, 1+len(c.OtherDocuments))
	docs = append(docs, records.FollowUpDocument{
		Name: documentName(c.MainDocument),
		Ref:  DocumentURL(m.DocumentBase, c.MainDocument),
	})
	for _, other := range c.OtherDocuments {
		docs = append(docs, records.FollowUpDocument{
			Name: documentName(other),
			Ref:  DocumentURL(m.DocumentBase, other),
		})
	}
	return docs
}

// Authorization maps a permit collection.
func (m MEM) Authorization(p records.Project, c records.ExternalCollection) records.Authorization {
	id := ""
	name := c.DisplayName
	switch {
	case c.IsForMEM:
		id = p.MemPermitID
	case c.IsForENV:
		if parts := envDisplayName.FindStringSubmatch(name); parts != nil {
			id, name = parts[1], parts[2]
		}
	}

	status := c.Status
	if status == "" {
		status = statusIssued
		if c.Type == typePermitAmendment {
			status = statusAmended
		}
	}

	var agencyName, agencyCode, actName string
	switch {
	case c.IsForMEM:
		agencyName, agencyCode, actName = agencyNameMEM, AgencyMEM, actNameMEM
	case c.IsForENV:
		agencyName, agencyCode, actName = agencyNameENV, AgencyENV, actNameENV
	}

	return records.Authorization{
		SchemaName:        records.SchemaAuthorization,
		AuthorizationID:   id,
		FollowUpDocuments: m.followUps(c),
		AuthorizationDate: c.Date,
		DocumentStatus:    status,
		DocumentType:      "Permit",
		DocumentName:      name,
		DocumentURL:       DocumentURL(m.DocumentBase, c.MainDocument),
		ActName:           actName,
		AgencyName:        agencyName,
		AgencyCode:        agencyCode,
		ProjectCode:       p.Code,
		ProjectName:       p.Name,
		ProjectID:         p.ID,
		ImportSource:      records.SourceMEM,
	}
}

// InspectionName builds the label shown for an inspection, e.g.
// "EMPR-12345 (Ministry of Energy, Mines and Petroleum Resources)".
func InspectionName(c records.ExternalCollection) string {
	switch {
	case c.IsForMEM:
		return inspectionPrefixMEM + c.DisplayName + inspectionSuffixMEM
	case c.IsForENV:
		return inspectionPrefixENV + c.DisplayName + inspectionSuffixENV
	}
	return c.DisplayName
}

// Inspection maps an inspection report collection.
func (m MEM) Inspection(p records.Project, c records.ExternalCollection) records.Inspection {
	return records.Inspection{
		SchemaName:        records.SchemaInspection,
		FollowUpDocuments: m.followUps(c),
		DocumentName:      c.DisplayName,
		DocumentURL:       DocumentURL(m.DocumentBase, c.MainDocument),
		InspectionDate:    c.Date,
		InspectionNum:     c.DisplayName,
		InspectionName:    InspectionName(c),
		ProjectCode:       p.Code,
		ProjectName:       p.Name,
		ProjectID:         p.ID,
		ImportSource:      records.SourceMEM,
	}
}

// OtherDocument maps reports, plans and anything not filed elsewhere.
func (m MEM) OtherDocument(p records.Project, c records.ExternalCollection) records.OtherDocument {
	docs := make([]records.DatedDocument, 0, 1+len(c.OtherDocuments))
	docs = append(docs, records.DatedDocument{
		Name: documentName(c.MainDocument),
		Ref:  DocumentURL(m.DocumentBase, c.MainDocument),
		Date: documentDate(c.MainDocument),
	})
	for _, other := range c.OtherDocuments {
		docs = append(docs, records.DatedDocument{
			Name: documentName(other),
			Ref:  DocumentURL(m.DocumentBase, other),
			Date: documentDate(other),
		})
	}

	return records.OtherDocument{
		SchemaName:   records.SchemaOtherDocument,
		Date:         c.Date,
		Documents:    docs,
		DocumentName: c.DisplayName,
		DocumentType: c.Type,
		DocumentURL:  DocumentURL(m.DocumentBase, c.MainDocument),
		Agencies:     []string{},
		ProjectCode:  p.Code,
		ProjectName:  p.Name,
		ProjectID:    p.ID,
		ImportSource: records.SourceMEM,
	}
}
