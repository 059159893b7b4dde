package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Desc orders by `field`, most recent/greatest first.
func Desc(field string) DBOrdering {
	return DBOrdering{Field: field}
}
