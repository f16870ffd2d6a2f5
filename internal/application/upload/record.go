package upload

// Record maps canonical local paths to the URLs they were uploaded to. It is
// scoped to one migration run, filled lazily, and never invalidated. A run
// is sequential, so no locking is needed.
type Record struct {
	urls map[string]string
}

// NewRecord creates an empty upload record
func NewRecord() *Record {
	return &Record{urls: make(map[string]string)}
}

// Lookup returns the URL for a canonical path if it was already uploaded
func (r *Record) Lookup(path string) (string, bool) {
	url, ok := r.urls[path]
	return url, ok
}

// Store remembers a completed upload
func (r *Record) Store(path, url string) {
	r.urls[path] = url
}

// Len returns the number of distinct files uploaded
func (r *Record) Len() int {
	return len(r.urls)
}
