package storage

// Collection names a document collection.
type Collection string

const (
	Projects       Collection = "projects"
	Authorizations Collection = "authorizations"
	Inspections    Collection = "inspections"
	OtherDocuments Collection = "otherdocuments"
)

// codeField is the field a collection's project code lives in.
func codeField(c Collection) string {
	if c == Projects {
		return "code"
	}
	return "projectCode"
}

// Cond is a single field predicate: equality, or substring match when
// Contains is set.
type Cond struct {
	Field    string
	Equals   string
	Contains string
}

func Eq(field, value string) Cond { return Cond{Field: field, Equals: value} }

func Contains(field, substr string) Cond { return Cond{Field: field, Contains: substr} }

// Filter selects documents of one project. An empty ProjectCode matches
// every project; a non-empty AnyOf additionally requires one of its
// conditions to hold.
type Filter struct {
	ProjectCode string
	AnyOf       []Cond
}
