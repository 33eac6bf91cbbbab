package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devboardhq/devboard/pkg/response"
)

// FileService exposes read-only browsing of the configured data directory
// (exports, test artifacts, shared notes).
type FileService struct {
	root string
}

func NewFileService(dataDir string) *FileService {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		abs = dataDir
	}
	return &FileService{root: abs}
}

// maxContentBytes caps how much of a file the content endpoint returns.
const maxContentBytes = 256 * 1024

type FileEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"` // relative to the data dir
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type FileContent struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
}

// resolve maps a client-supplied relative path onto the data dir and rejects
// anything escaping it.
func (s *FileService) resolve(rel string) (string, error) {
	cleaned := filepath.Clean("/" + rel) // force the path to be rooted
	full := filepath.Join(s.root, cleaned)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", response.NewBadRequest("path escapes the data directory")
	}
	return full, nil
}

// List returns the entries of a directory inside the data dir.
func (s *FileService) List(rel string) ([]FileEntry, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, response.NewNotFound("directory not found")
		}
		return nil, err
	}

	result := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		// Hidden files are noise on the dashboard
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		relPath, _ := filepath.Rel(s.root, filepath.Join(full, entry.Name()))
		result = append(result, FileEntry{
			Name:    entry.Name(),
			Path:    relPath,
			IsDir:   entry.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return result, nil
}

// Content returns the contents of a text file inside the data dir.
func (s *FileService) Content(rel string) (*FileContent, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, response.NewNotFound("file not found")
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, response.NewBadRequest("path is a directory")
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, maxContentBytes+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	truncated := n > maxContentBytes
	if truncated {
		n = maxContentBytes
	}
	data := buf[:n]

	if !utf8.Valid(data) {
		return nil, response.NewBadRequest("file is not text")
	}

	relPath, _ := filepath.Rel(s.root, full)
	return &FileContent{
		Path:      relPath,
		Content:   string(data),
		Size:      info.Size(),
		Truncated: truncated,
	}, nil
}
