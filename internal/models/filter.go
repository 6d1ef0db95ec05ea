package models

// Filter narrows record listings. Zero fields are ignored; fields that do
// not apply to a kind are ignored for that kind.
type Filter struct {
	Search   string
	Status   TaskStatus
	Priority int
	DueDate  string
	Category string
}
