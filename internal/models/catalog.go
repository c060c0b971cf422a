package models

// PolicyFolder is one folder in the policy corpus.
type PolicyFolder struct {
	Name      string `json:"name"`
	FileCount int    `json:"file_count"`
}

// PolicyCatalog is the response of the policy listing endpoint.
type PolicyCatalog struct {
	Folders    []PolicyFolder `json:"folders"`
	TotalFiles int            `json:"total_files"`
}

// PolicyFile is one document inside a policy folder.
type PolicyFile struct {
	Name   string `json:"name"`
	Folder string `json:"folder"`
	Path   string `json:"path"`
}

// FolderContents lists the documents of a single policy folder.
type FolderContents struct {
	Folder string       `json:"folder"`
	Files  []PolicyFile `json:"files"`
}
