package events

// ResultDeclared is emitted when an admin result entry changes a game's
// published result. Partial halves are announced too; Complete reports
// whether all four fields are now set.
type ResultDeclared struct {
	GameName string `json:"game_name"`
	Date     string `json:"date"` // YYYY-MM-DD
	Display  string `json:"display"`
	Complete bool   `json:"complete"`
}
