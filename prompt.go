package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskrabbit-scraper/services"
)

// promptCategory lists the categories with numbers and reads a choice
// from in. It returns a key, "all", or "" when the user quits.
func promptCategory(in io.Reader, out io.Writer, keys []string) (string, error) {
	fmt.Fprintln(out, "Select a category:")
	for i, k := range keys {
		fmt.Fprintf(out, "  %2d) %s\n", i+1, k)
	}
	fmt.Fprintf(out, "  %2d) All categories\n", len(keys)+1)
	fmt.Fprintln(out, "   q) Quit")

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read choice: %w", err)
			}
			return "", nil
		}

		choice := strings.ToLower(strings.TrimSpace(sc.Text()))
		switch {
		case choice == "q" || choice == "quit":
			return "", nil
		case choice == services.AllCategories:
			return services.AllCategories, nil
		}

		if n, err := strconv.Atoi(choice); err == nil {
			switch {
			case n >= 1 && n <= len(keys):
				return keys[n-1], nil
			case n == len(keys)+1:
				return services.AllCategories, nil
			}
		}
		for _, k := range keys {
			if k == choice {
				return k, nil
			}
		}

		fmt.Fprintf(out, "Unknown choice %q, enter 1-%d or q\n", choice, len(keys)+1)
	}
}
