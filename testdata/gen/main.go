// Command gen writes testdata/users.parquet, the parquet twin of
// testdata/users.csv with a multi-valued tags column added.
package main

import (
	"log"
	"os"

	parquet "github.com/parquet-go/parquet-go"
)

type User struct {
	Name  string   `parquet:"name"`
	Age   int32    `parquet:"age"`
	City  string   `parquet:"city"`
	Score *float64 `parquet:"score,optional"`
	Tags  []string `parquet:"tags"`
}

func score(f float64) *float64 { return &f }

func main() {
	f, err := os.Create("testdata/users.parquet")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[User](f)

	users := []User{
		{"Alice", 30, "NY", score(1.5), []string{"admin", "ops"}},
		{"Bob", 25, "LA", score(2.25), []string{"dev"}},
		{"Charlie", 35, "NY", score(3), nil},
		{"Diana", 28, "SF", score(0.5), []string{"dev", "ops"}},
		{"Eve", 22, "LA", score(4), []string{"admin"}},
		{"Frank", 40, "NY", nil, nil},
	}

	if _, err := w.Write(users); err != nil {
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
}
