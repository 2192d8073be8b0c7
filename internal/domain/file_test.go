package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeFromName(t *testing.T) {
	cases := map[string]string{
		"q.pdf":              FileTypePDF,
		"report.XLSX":        FileTypeExcel,
		"legacy.xls":         FileTypeExcel,
		"letter.doc":         FileTypeWord,
		"Letter.DocX":        FileTypeWord,
		"readme.txt":         FileTypeText,
		"notes":              FileTypeOther,
		"archive.tar.gz":     FileTypeOther,
		"user_1/sub/a.pdf":   FileTypePDF,
		".hidden":            FileTypeOther,
		`C:\docs\budget.xls`: FileTypeExcel,
	}
	for name, want := range cases {
		assert.Equal(t, want, FileTypeFromName(name), name)
	}
}

func TestDeriveFileMeta(t *testing.T) {
	filename, fileType := DeriveFileMeta("uploads/report.XLSX", "", "")
	assert.Equal(t, "report.XLSX", filename)
	assert.Equal(t, FileTypeExcel, fileType)

	filename, fileType = DeriveFileMeta("report.XLSX", "q3.xlsx", FileTypeOther)
	assert.Equal(t, "q3.xlsx", filename)
	assert.Equal(t, FileTypeOther, fileType)

	filename, fileType = DeriveFileMeta("notes", "", "")
	assert.Equal(t, "notes", filename)
	assert.Equal(t, FileTypeOther, fileType)
}

func TestIsValidFileType(t *testing.T) {
	for _, v := range FileTypes {
		assert.True(t, IsValidFileType(v))
	}
	assert.False(t, IsValidFileType("image"))
	assert.False(t, IsValidFileType(""))
}
