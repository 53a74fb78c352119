package models

// Row change event types.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// RowChange is a change notification for a single row. Record holds the new
// column values; it may carry only the columns that changed.
type RowChange struct {
	Table  string         `json:"table"`
	Type   string         `json:"type"`
	Record map[string]any `json:"record"`
}

// Float returns the numeric value of column. Null or non-numeric values are
// 0; ok is false when the record does not carry the column at all.
func (c RowChange) Float(column string) (v float64, ok bool) {
	raw, ok := c.Record[column]
	if !ok {
		return 0, false
	}
	return ToFloat(raw), true
}
