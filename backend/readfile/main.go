// Command readfile decodes stored game and team files, decrypting them
// with the key of the data directory, and prints them as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ttbt-io/scorebook/backend"
)

var (
	dataDir = flag.String("data-dir", "data", "Directory for game and team data")
)

func main() {
	flag.Parse()
	store, _, err := backend.OpenStorage(*dataDir)
	if err != nil {
		log.Fatalf("Refusing to read encrypted data: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, arg := range flag.Args() {
		arg = strings.TrimPrefix(strings.TrimPrefix(arg, *dataDir), "/")
		var obj any
		switch {
		case strings.HasSuffix(arg, ".meta.json"):
			obj = new(backend.GameMetadata)
		case strings.HasPrefix(arg, "games"):
			obj = new(backend.Game)
		default:
			obj = new(backend.Team)
		}
		if err := store.ReadDataFile(arg, obj); err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		fmt.Printf("=========== %s ===========\n", arg)
		if err := enc.Encode(obj); err != nil {
			log.Printf("JSON: %s: %v", arg, err)
		}
	}
}
