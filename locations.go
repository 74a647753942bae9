package mockrobot

// LocationValidator decides which location values an operation may use.
type LocationValidator interface {
	IsValidLocation(value string) bool
}

// LocationTable is a fixed set of allowed location values.
type LocationTable map[string]struct{}

func NewLocationTable(values ...string) LocationTable {
	t := make(LocationTable, len(values))
	for _, v := range values {
		t[v] = struct{}{}
	}
	return t
}

// IsValidLocation accepts empty values; they mean the slot is unused.
func (t LocationTable) IsValidLocation(value string) bool {
	if value == "" {
		return true
	}
	_, ok := t[value]
	return ok
}

var DefaultLocations = NewLocationTable("1", "2", "3", "6", "12", "38", "80", "10", "20", "345")
