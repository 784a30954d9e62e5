package logging

// Common structured log field keys.
const (
	FieldComponent  = "component"
	FieldLeague     = "league"
	FieldMode       = "mode"
	FieldSource     = "source"
	FieldTeamID     = "team_id"
	FieldGameID     = "game_id"
	FieldUserID     = "user_id"
	FieldJobID      = "job_id"
	FieldQueue      = "queue"
	FieldRunID      = "run_id"
	FieldURL        = "url"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
)
