package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadAccounts reads the ordered account list: one identifier per line,
// blank lines and '#' comments skipped. An absent or empty file is an
// error; the caller treats it as startup-fatal.
func LoadAccounts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts file %s: %w", path, err)
	}
	defer f.Close()

	var accounts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		accounts = append(accounts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts file %s: %w", path, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("accounts file %s contains no accounts", path)
	}
	return accounts, nil
}
