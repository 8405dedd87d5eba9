package auth

// OAuth scopes understood by the step coach API.
const (
	ScopeDatasetRead     = "dataset:read"
	ScopeModelWrite      = "model:write"
	ScopePredictionsRead = "predictions:read"
)
