package domain

// File is one converted audio file in the backend listing. The listing is
// fully replaced on every fetch; the server is the sole source of truth for
// identity and order.
type File struct {
	Name       string  `json:"name"` // unique within a listing
	Size       int64   `json:"size"`
	SizeStr    string  `json:"size_str"`
	Modified   string  `json:"modified"`
	ModifiedTS float64 `json:"modified_timestamp"`
	URL        string  `json:"url"` // playable resource locator
}

// FileNames returns the listing's names in server order.
func FileNames(files []File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// FindFile locates a file by name, preserving the server's ordering
// semantics (first match wins).
func FindFile(files []File, name string) (File, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}
