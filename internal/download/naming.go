package download

import (
	"path/filepath"
	"strings"

	"github.com/grabzilla/grabzilla/internal/model"
)

// ConversionFilename builds the output path for a converted artifact:
// <stem>_<resolutionTag>_<formatTag>.<ext>, placed next to the input file.
func ConversionFilename(inputPath, resolutionTag string, format model.ConversionFormat) string {
	dir := filepath.Dir(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, stem+"_"+resolutionTag+"_"+format.String()+"."+format.Ext())
}
