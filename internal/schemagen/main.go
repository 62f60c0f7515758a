// Command schemagen writes the JSON schema of the inlay configuration file,
// for editors that validate YAML against a schema.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
)

var outFile = flag.String("o", "inlays.v1beta1.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	jsData, err := inlays.Schema()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, append(jsData, '\n'), 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
