package domain

// Lane is a named horizontal grouping of tasks.
type Lane struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
