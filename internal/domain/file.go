package domain

import (
	"path"
	"strings"
	"time"
)

// File types an upload can be classified as
const (
	FileTypePDF   = "pdf"
	FileTypeExcel = "excel"
	FileTypeWord  = "word"
	FileTypeText  = "txt"
	FileTypeOther = "other"
)

// FileTypes lists every accepted file_type value.
var FileTypes = []string{FileTypePDF, FileTypeExcel, FileTypeWord, FileTypeText, FileTypeOther}

// UploadedFile Model
type UploadedFile struct {
	ID          uint      `gorm:"primaryKey"`                                     // Primary key
	UserID      uint      `gorm:"index;not null"`                                 // Owning user, fixed at creation
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Owner, loaded for the username
	StorageKey  string    `gorm:"size:512;not null"`                              // Blob key in the object store
	Filename    string    `gorm:"size:255;not null"`                              // Name used for downloads
	FileType    string    `gorm:"size:10;index;not null"`                         // One of FileTypes
	Size        int64     `gorm:"not null;default:0"`                             // Blob size in bytes
	ContentType string    `gorm:"size:255"`                                       // Sniffed MIME type
	UploadDate  time.Time `gorm:"autoCreateTime;not null"`                        // Upload timestamp
}

// IsValidFileType reports whether t is an accepted file_type value.
func IsValidFileType(t string) bool {
	for _, v := range FileTypes {
		if v == t {
			return true
		}
	}
	return false
}

// FileTypeFromName maps the lower-cased extension of name to a file type.
func FileTypeFromName(name string) string {
	switch strings.ToLower(path.Ext(BaseName(name))) {
	case ".pdf":
		return FileTypePDF
	case ".xls", ".xlsx":
		return FileTypeExcel
	case ".doc", ".docx":
		return FileTypeWord
	case ".txt":
		return FileTypeText
	default:
		return FileTypeOther
	}
}

// BaseName returns the last element of an uploaded name, accepting both
// slash and backslash separators since browsers on Windows may send either.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// DeriveFileMeta fills in filename and file type from the original blob
// name. Explicit values win; empty ones are derived.
func DeriveFileMeta(originalName, filename, fileType string) (string, string) {
	if filename == "" {
		filename = BaseName(originalName)
	}
	if fileType == "" {
		fileType = FileTypeFromName(originalName)
	}
	return filename, fileType
}
