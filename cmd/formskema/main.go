// Command formskema loads schema descriptors and documents and prints the
// projected form state, or applies edits through a document session.
//
// Usage:
//
//	formskema types  --schema blog.yaml
//	formskema project --schema blog.yaml [--state ui.yaml] [--validate] doc1.yaml doc2.json
//	formskema edit   --schema blog.yaml --path title --value '"Hello"' doc.yaml
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Errorf("formskema: %v", err)
		os.Exit(1)
	}
}
