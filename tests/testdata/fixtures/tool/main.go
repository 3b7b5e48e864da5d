package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
)

const defaultLimit = 20

func main() {
	limit := flag.Int("limit", defaultLimit, "maximum rows to print")
	flag.Parse()

	rows, err := loadRows(flag.Arg(0), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, row := range rows {
		fmt.Println(row)
	}
}

func loadRows(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(rows) < limit {
		rows = append(rows, scanner.Text())
	}
	return rows, scanner.Err()
}
