// Command uploadtests seeds test variants from a JSON bundle into the
// database, bypassing the HTTP API. The bundle is an array of variants in
// the same shape the content pipeline produces.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/lingvistik/lingvistik-server/internal/config"
	"github.com/lingvistik/lingvistik-server/internal/db"
	"github.com/lingvistik/lingvistik-server/internal/quiz"
	"github.com/lingvistik/lingvistik-server/internal/store"
)

func main() {
	file := flag.String("file", "", "path to the JSON bundle (array of test variants)")
	flag.Parse()
	if *file == "" {
		log.Fatal("usage: uploadtests -file tests.json")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read bundle: %v", err)
	}
	var tests []quiz.TestVariant
	if err := json.Unmarshal(data, &tests); err != nil {
		log.Fatalf("decode bundle: %v", err)
	}
	for _, t := range tests {
		if t.Language == "" || len(t.Questions) == 0 {
			log.Fatalf("variant %s: needs a language and questions", t.Key())
		}
		for _, q := range t.Questions {
			if !q.Type.Valid() {
				log.Fatalf("variant %s: unknown question type %q in %s", t.Key(), q.Type, q.ID)
			}
		}
	}

	cfg := config.FromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	st := store.NewSQLStore(dbh, cfg.DBDriver)
	for _, t := range tests {
		if err := st.PutTest(ctx, t); err != nil {
			log.Fatalf("upload %s: %v", t.Key(), err)
		}
	}
	log.Printf("%d variant(s) uploaded", len(tests))
}
