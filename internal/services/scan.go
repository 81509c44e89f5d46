package services

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"siif/internal/models"

	"gorm.io/gorm"
)

// ExecutableExtensions are always flagged, even if someone adds them to an allowlist.
var ExecutableExtensions = map[string]bool{
	"exe": true, "bat": true, "cmd": true, "sh": true,
	"ps1": true, "vbs": true, "js": true,
}

type ScanFinding struct {
	Source     string // "banco" or "disco"
	Path       string
	MaterialID uint
	Title      string
	Reason     string
}

type ScanReport struct {
	MaterialsChecked int
	FilesChecked     int
	Findings         []ScanFinding
}

func (r *ScanReport) Clean() bool {
	return len(r.Findings) == 0
}

// suspicious returns a reason for flagging name, or "" when it looks fine.
func suspicious(name string) string {
	ext := Ext(name)
	lower := strings.ToLower(name)
	switch {
	case ExecutableExtensions[ext]:
		return "extensão executável (." + ext + ")"
	case strings.Contains(lower, "virus"):
		return "nome suspeito"
	case !MaterialExtensions[ext]:
		if ext == "" {
			return "arquivo sem extensão"
		}
		return "extensão não permitida (." + ext + ")"
	}
	return ""
}

// ScanUploads checks material rows and files on disk for suspicious names.
func ScanUploads(conn *gorm.DB, store *Storage) (*ScanReport, error) {
	report := &ScanReport{}

	var materials []models.Material
	if err := conn.Where("file_path <> ''").Find(&materials).Error; err != nil {
		return nil, err
	}
	for _, m := range materials {
		report.MaterialsChecked++
		if reason := suspicious(m.FilePath); reason != "" {
			report.Findings = append(report.Findings, ScanFinding{
				Source: "banco", Path: m.FilePath, MaterialID: m.ID, Title: m.Title, Reason: reason,
			})
		}
	}

	err := filepath.WalkDir(store.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == store.Root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		report.FilesChecked++
		if reason := suspicious(d.Name()); reason != "" {
			rel, _ := filepath.Rel(store.Root, p)
			report.Findings = append(report.Findings, ScanFinding{
				Source: "disco", Path: filepath.ToSlash(rel), Reason: reason,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		return report.Findings[i].Path < report.Findings[j].Path
	})
	return report, nil
}
