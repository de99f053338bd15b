package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadURLList parses a newline-delimited list of repository URLs. Blank
// lines, comment lines beginning with '#', and lines that are not HTTP(S)
// URLs are ignored.
func ReadURLList(r io.Reader) ([]string, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "http") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	return urls, nil
}

// FilterURLArgs keeps the arguments that look like HTTP(S) URLs.
func FilterURLArgs(args []string) []string {
	var urls []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "http") {
			urls = append(urls, arg)
		}
	}
	return urls
}
