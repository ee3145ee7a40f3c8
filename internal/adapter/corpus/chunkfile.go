package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var reChunkHeader = regexp.MustCompile(`#### Chunk \d+\n`)

// WriteChunks writes segments in the "#### Chunk <N>\n<body>\n" interchange format.
// Chunks are numbered by position, starting at 1.
func WriteChunks(w io.Writer, segments []Segment) error {
	bw := bufio.NewWriter(w)
	for i, s := range segments {
		if _, err := fmt.Fprintf(bw, "#### Chunk %d\n%s\n", i+1, strings.TrimSpace(s.Text)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadChunks parses the interchange format back into chunk bodies, in order.
// Text before the first header is ignored.
func ReadChunks(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return SplitChunks(string(data)), nil
}

// SplitChunks splits chunk-file content on its headers.
func SplitChunks(content string) []string {
	parts := reChunkHeader.Split(content, -1)
	if len(parts) <= 1 {
		return []string{}
	}
	return parts[1:]
}

// WriteChunkFile writes segments to path, truncating any previous content.
func WriteChunkFile(path string, segments []Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunk file: %w", err)
	}
	if err := WriteChunks(f, segments); err != nil {
		f.Close()
		return fmt.Errorf("failed to write chunk file: %w", err)
	}
	return f.Close()
}

// ReadChunkFile reads chunk bodies from path.
func ReadChunkFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadChunks(f)
}
