package main

import (
	"fmt"
	"path/filepath"

	"github.com/goyek/goyek/v2"

	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

// ValidateModels checks the bundled model descriptors
var ValidateModels = goyek.Define(goyek.Task{
	Name:  "validate-models",
	Usage: "Validate model descriptors. Use [-models-dir=models]",
	Action: func(a *goyek.A) {
		dir := *modelsDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(moduleRoot(a), dir)
		}

		catalog := modelcatalog.NewDir(dir, nil)
		issues := catalog.Validate()
		for _, issue := range issues {
			a.Errorf("%s", issue)
		}
		if len(issues) == 0 {
			fmt.Printf("%d descriptors in %s are valid\n", len(catalog.List()), dir)
		}
	},
})
