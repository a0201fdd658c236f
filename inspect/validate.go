package inspect

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate runs pdfcpu's relaxed structural validation over the file at
// path. pdfcpu parses the file with its own reader, so this also checks
// that the output opens outside this module.
func Validate(path string) error {
	api.DisableConfigDir()
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("%s failed validation: %w", path, err)
	}
	return nil
}
