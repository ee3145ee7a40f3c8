package port

// FileInfo describes a corpus file found on disk.
type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
