package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcgov/mmti-sync/pkg/records"
)

func eaoRow(typ string) records.EAOCollection {
	return records.EAOCollection{
		Code: "brule",
		ID:   "M05-01",
		Date: "2005-06-01",
		Type: typ,
		Name: "Certificate M05-01",
		Documents: []records.EAODocument{
			{Name: "Certificate", URL: "https://eao.example/doc/1", Date: "2005-06-01"},
			{Name: "Schedule", URL: "https://eao.example/doc/2"},
		},
	}
}

func TestEAOAuthorization(t *testing.T) {
	a := EAO{}.Authorization(testProject, eaoRow("Certificate Amendment"))

	require.Equal(t, "M05-01", a.AuthorizationID)
	require.Equal(t, "Amended", a.DocumentStatus)
	require.Equal(t, "Certificate", a.DocumentType)
	require.Equal(t, "EAO", a.AgencyCode)
	require.Equal(t, "Environmental Assessment Office", a.AgencyName)
	require.Equal(t, "Environmental Assessment Act", a.ActName)
	require.Equal(t, "https://eao.example/doc/1", a.DocumentURL)
	require.Len(t, a.FollowUpDocuments, 2)
	require.Equal(t, records.SourceEAO, a.ImportSource)

	require.Equal(t, "Issued", EAO{}.Authorization(testProject, eaoRow("Certificate")).DocumentStatus)
}

func TestEAOInspection(t *testing.T) {
	i := EAO{}.Inspection(testProject, eaoRow("Inspection Report"))
	require.Equal(t, "EAO- (Environmental Assessment Office)", i.InspectionName)
	require.Equal(t, "Certificate M05-01", i.DocumentName)
	require.Empty(t, i.InspectionNum)
}

func TestEAOOtherDocumentDefaults(t *testing.T) {
	fixed := time.Date(2018, 1, 2, 3, 4, 5, 0, time.UTC)
	row := eaoRow("Management Plan")
	row.Name = ""

	o := EAO{Now: func() time.Time { return fixed }}.OtherDocument(testProject, row)

	require.Equal(t, "Certificate", o.DocumentName, "falls back to first document name")
	require.Equal(t, "Management Plan", o.DocumentType)
	require.Equal(t, "2005-06-01", o.Documents[0].Date)
	require.Equal(t, "2018-01-02T03:04:05Z", o.Documents[1].Date)
}

func TestEAOWithoutDocuments(t *testing.T) {
	row := eaoRow("Certificate")
	row.Documents = nil

	a := EAO{}.Authorization(testProject, row)
	require.Empty(t, a.DocumentURL)
	require.Empty(t, a.FollowUpDocuments)
}
