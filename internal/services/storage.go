package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"siif/internal/utils"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix the router serves the upload dir under.
const PublicPrefix = "/uploads/"

var (
	ErrExtensionNotAllowed = errors.New("tipo de arquivo não permitido")
	ErrDuplicateFile       = errors.New("já existe um arquivo com este nome")
	ErrFileTooLarge        = errors.New("arquivo muito grande")
	ErrInvalidFilename     = errors.New("nome de arquivo inválido")
)

// MaterialExtensions are the types accepted in the materials library.
var MaterialExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true, "txt": true, "jpg": true, "jpeg": true,
	"png": true, "mp4": true,
}

// ImageExtensions are accepted for profile photos, banners and news images.
var ImageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true}

// AttachmentExtensions are accepted as news attachments.
var AttachmentExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true, "txt": true, "jpg": true, "jpeg": true, "png": true,
}

// Storage keeps uploaded files on local disk below Root.
type Storage struct {
	Root     string
	MaxBytes int64
}

func NewStorage(root string, maxMB int64) *Storage {
	return &Storage{Root: root, MaxBytes: maxMB << 20}
}

// Ext returns the lower-case extension of name without the dot.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// SaveNamed stores fh under dir keeping its sanitized name.
// An existing file with the same name yields ErrDuplicateFile.
func (s *Storage) SaveNamed(fh *multipart.FileHeader, dir string, allowed map[string]bool) (string, error) {
	name := utils.SecureFilename(fh.Filename)
	if name == "" || Ext(name) == "" {
		return "", ErrInvalidFilename
	}
	return s.save(fh, path.Join(dir, name), allowed)
}

// SaveUnique stores fh under dir with a random name and the original extension.
func (s *Storage) SaveUnique(fh *multipart.FileHeader, dir string, allowed map[string]bool) (string, error) {
	ext := Ext(fh.Filename)
	if ext == "" {
		return "", ErrInvalidFilename
	}
	return s.save(fh, path.Join(dir, uuid.NewString()+"."+ext), allowed)
}

func (s *Storage) save(fh *multipart.FileHeader, rel string, allowed map[string]bool) (string, error) {
	if !allowed[Ext(rel)] {
		return "", ErrExtensionNotAllowed
	}
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", ErrFileTooLarge
	}

	dst := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", ErrDuplicateFile
		}
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close file: %w", err)
	}
	return rel, nil
}

// Path maps a stored relative path to the file on disk.
func (s *Storage) Path(rel string) string {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	return filepath.Join(s.Root, filepath.FromSlash(clean))
}

func (s *Storage) Exists(rel string) bool {
	info, err := os.Stat(s.Path(rel))
	return err == nil && !info.IsDir()
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Storage) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(s.Path(rel))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL is the public address of a stored file.
func (s *Storage) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return PublicPrefix + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

// RemoveURL deletes the file behind a URL produced by URL.
// URLs pointing elsewhere are ignored.
func (s *Storage) RemoveURL(u string) error {
	if !strings.HasPrefix(u, PublicPrefix) {
		return nil
	}
	return s.Remove(strings.TrimPrefix(u, PublicPrefix))
}
