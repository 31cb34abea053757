package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SavedFile describes one accepted upload on disk.
type SavedFile struct {
	Field        string
	OriginalName string
	Kind         Kind
	Bucket       string
	Path         string
	Size         int64
}

// Store writes accepted files into per-kind bucket directories under Root.
// Names are always generated; the client-supplied name never touches the
// filesystem.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	for _, bucket := range []string{"images", "documents", "videos", "other"} {
		if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &Store{root: root}, nil
}

func bucketFor(kind Kind) string {
	if rule, ok := kindRules[kind]; ok {
		return rule.bucket
	}
	return "other"
}

// generatedName is a time prefix plus a random suffix plus the original
// extension. Collision-resistant and free of any client-controlled path.
func generatedName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), suffix, ext)
}

func (s *Store) Save(kind Kind, fh *multipart.FileHeader) (SavedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return SavedFile{}, err
	}
	defer src.Close()

	bucket := bucketFor(kind)
	path := filepath.Join(s.root, bucket, generatedName(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return SavedFile{}, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return SavedFile{}, err
	}
	return SavedFile{
		OriginalName: fh.Filename,
		Kind:         kind,
		Bucket:       bucket,
		Path:         path,
		Size:         n,
	}, nil
}

// Remove deletes every file in the list. Used to roll back a request after a
// validation failure; missing files are ignored.
func (s *Store) Remove(files []SavedFile) {
	for _, f := range files {
		_ = os.Remove(f.Path)
	}
}
