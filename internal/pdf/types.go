package pdf

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ValidationResult is the outcome of validating one file.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}
