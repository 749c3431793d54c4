package models

// Issue kinds reported by the analyzer.
const (
	IssueOutdated  = "outdated"
	IssueRedundant = "redundant"
)

// Issue is one row of a document analysis report.
type Issue struct {
	ChunkID  int    `json:"chunk_id"`
	Document string `json:"document"`
	Issue    string `json:"issue"`
	Detail   string `json:"detail"`
	Snippet  string `json:"snippet"`
}

// AnalysisReport is the analyzer agent result.
type AnalysisReport struct {
	ReportPath  string  `json:"report_path"`
	Filename    string  `json:"filename"`
	IssuesFound int     `json:"issues_found"`
	Issues      []Issue `json:"-"`
}

// QuizItem is one parsed multiple-choice question. Answer holds the text of the
// correct option, or "" when unknown.
type QuizItem struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// OnboardingResult is the onboarding agent result.
type OnboardingResult struct {
	Filename  string     `json:"filename"`
	Checklist []string   `json:"checklist"`
	Quiz      []QuizItem `json:"quiz"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Message   string      `json:"message"`
	Documents []*Document `json:"documents"`
}

// Status is the body returned by GET /status.
type Status struct {
	Chunks          int            `json:"chunks"`
	VectorIndexSize int            `json:"vector_index_size"`
	VectorIndexType string         `json:"vector_index_type"`
	Dimensions      int            `json:"dimensions"`
	Documents       int64          `json:"documents"`
	KeywordDocs     uint64         `json:"keyword_docs"`
	DiskUsageBytes  int64          `json:"disk_usage_bytes"`
	Config          map[string]any `json:"config,omitempty"`
}

// SearchHit is one keyword search result.
type SearchHit struct {
	Position  int      `json:"position"`
	Score     float64  `json:"score"`
	Document  string   `json:"document,omitempty"`
	Text      string   `json:"text"`
	Fragments []string `json:"fragments,omitempty"`
}

// RetrieveResponse is the body returned by GET /retrieve.
type RetrieveResponse struct {
	Query  string  `json:"query"`
	Chunks []Chunk `json:"chunks"`
}
