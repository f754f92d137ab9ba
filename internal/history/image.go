package history

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// AppendImage stores an uploaded image for an entry and tracks it as the
// entry's single image. A re-upload replaces the tracked path but leaves the
// previously written file on disk.
func (s *Store) AppendImage(historyID, sourceName string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(sourceName))
	if ext == "" || !allowedImageExtensions[ext] {
		return "", ErrUnsupportedExtension
	}
	if len(content) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	target, entries, index, found, err := s.findEntryContainer(historyID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}

	now := s.now()
	monthDir := filepath.Join(s.imagesRoot, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(monthDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images dir %s: %w", monthDir, err)
	}

	relPath := s.nextImageRelPath(monthDir, ext)
	absPath := filepath.Join(s.baseDir, filepath.FromSlash(relPath))
	if err := os.WriteFile(absPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", absPath, err)
	}

	entries[index].Images = []string{relPath}
	if err := s.writeEntries(target, entries); err != nil {
		return "", err
	}
	return relPath, nil
}

// ReadImage returns the bytes and content type of an image addressed by its
// stored relative path. Anything that could escape the images root — absolute
// paths, parent or current directory segments, foreign prefixes — is
// rejected.
func (s *Store) ReadImage(imagePath string) ([]byte, string, error) {
	cleaned := strings.TrimSpace(imagePath)
	if cleaned == "" {
		return nil, "", fmt.Errorf("%w: path is empty", ErrInvalidImagePath)
	}
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "/") || strings.HasPrefix(cleaned, `\`) {
		return nil, "", fmt.Errorf("%w: absolute path is not allowed", ErrInvalidImagePath)
	}

	normalized := strings.ReplaceAll(cleaned, `\`, "/")
	for _, part := range strings.Split(normalized, "/") {
		if part == "" || part == "." || part == ".." {
			return nil, "", fmt.Errorf("%w: %s", ErrInvalidImagePath, cleaned)
		}
	}
	if !strings.HasPrefix(normalized, imagesDirName+"/") {
		return nil, "", fmt.Errorf("%w: path is out of scope", ErrInvalidImagePath)
	}

	absPath := filepath.Join(s.baseDir, filepath.FromSlash(normalized))
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image %s: %w", absPath, err)
	}
	return data, imageContentType(normalized), nil
}

// nextImageRelPath picks the first non-colliding file name under the month
// directory and returns its path relative to the base dir, slash separated.
func (s *Store) nextImageRelPath(monthDir, ext string) string {
	now := s.now()
	base := now.Format("20060102_150405")
	for seq := 1; ; seq++ {
		fileName := fmt.Sprintf("%s_%02d%s", base, seq, ext)
		if _, err := os.Stat(filepath.Join(monthDir, fileName)); os.IsNotExist(err) {
			return path.Join(imagesDirName, now.Format("2006"), now.Format("01"), fileName)
		}
	}
}

func imageContentType(imagePath string) string {
	switch strings.ToLower(path.Ext(imagePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
