package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueryView describes a query in a transport-friendly format.
type QueryView struct {
	QueryID   int64  `json:"queryid"`
	QueryText string `json:"querytext"`
	Status    string `json:"status"`
	TextKey   string `json:"textkey,omitempty"`
	ScriptKey string `json:"scriptkey,omitempty"`
	AudioKey  string `json:"audiokey,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// ArticleView describes a gathered article.
type ArticleView struct {
	ArticleID int64  `json:"articleid"`
	QueryID   int64  `json:"queryid"`
	URL       string `json:"url"`
	Headline  string `json:"headline"`
	CreatedAt string `json:"created_at,omitempty"`
}

// FetchResult is returned after a query is created and its articles gathered.
type FetchResult struct {
	QueryID          int64    `json:"queryid"`
	QueryText        string   `json:"querytext"`
	Status           string   `json:"status"`
	ArticleHeadlines []string `json:"article_headlines"`
}

// ScriptResult carries a generated narration script.
type ScriptResult struct {
	QueryID   int64  `json:"queryid"`
	ScriptKey string `json:"scriptkey"`
	Script    string `json:"script"`
}

// AudioResult carries synthesized podcast audio.
type AudioResult struct {
	QueryID   int64  `json:"queryid"`
	QueryText string `json:"querytext"`
	AudioKey  string `json:"audiokey"`
	AudioData []byte `json:"audiodata"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DatabaseStatus summarizes the record store.
type DatabaseStatus struct {
	Driver        string         `json:"driver"`
	Location      string         `json:"location"`
	Reachable     bool           `json:"reachable"`
	SchemaVersion int            `json:"schema_version"`
	SchemaCurrent bool           `json:"schema_current"`
	TotalQueries  int            `json:"total_queries"`
	TotalArticles int            `json:"total_articles"`
	StatusCounts  map[string]int `json:"status_counts"`
	Error         string         `json:"error,omitempty"`
}

// Status aggregates daemon runtime information.
type Status struct {
	Ready    bool           `json:"ready"`
	PID      int            `json:"pid,omitempty"`
	Database DatabaseStatus `json:"database"`
	Stages   []StageHealth  `json:"stages"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
