package main

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "tokenize",
		Usage: "baca query per baris dari stdin, tulis token dan term fingerprint nya sebagai json per baris",
		Action: func(c *cli.Context) error {
			return tokenizeLines(os.Stdin, os.Stdout)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// tokenizeLines satu baris output untuk setiap baris input, termasuk baris kosong.
func tokenizeLines(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := enc.Encode(usecases.TokenizeQuery(scanner.Text())); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return out.Flush()
}
