package github

import (
	"path/filepath"
	"strings"

	"github.com/riskradar/riskradar/internal/risk"
)

// binaryExtensions are file types that never carry reviewable source.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".lock": true, ".woff": true, ".woff2": true, ".ttf": true,
	".eot": true, ".pdf": true,
}

// maxFileChanges skips generated or vendored files too large to review.
const maxFileChanges = 500

// FilterReviewable drops files that should not feed the analysis: removed
// files, binary assets, and files whose change count marks them as
// generated.
func FilterReviewable(files []risk.ChangedFile) []risk.ChangedFile {
	filtered := make([]risk.ChangedFile, 0, len(files))
	for _, f := range files {
		if f.Status == risk.FileStatusRemoved {
			continue
		}
		if f.Additions+f.Deletions >= maxFileChanges {
			continue
		}
		if binaryExtensions[strings.ToLower(filepath.Ext(f.Filename))] {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered
}
