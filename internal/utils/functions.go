package utils

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

// SearchString returns the substring between the first occurrence of start
// and the first occurrence of end after it.
func SearchString(s, start, end string) (string, error) {
	if len(s) <= len(start)+len(end) {
		return "", fmt.Errorf("search term longer than the given string")
	}
	i1 := strings.Index(s, start)
	if i1 == -1 {
		return "", fmt.Errorf("could not find %q in content", start)
	}
	rest := s[i1+len(start):]
	i2 := strings.Index(rest, end)
	if i2 == -1 {
		return "", fmt.Errorf("could not find %q after %q", end, start)
	}
	return rest[:i2], nil
}

// Shorten truncates s to at most n bytes.
func Shorten(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

// NextAvailableName probes base(1), base(2), ... until base(n)+ext does not
// exist and returns that base name.
func NextAvailableName(base, ext string) string {
	index := 1
	for {
		candidate := fmt.Sprintf("%s(%d)", base, index)
		if _, err := os.Stat(candidate + ext); os.IsNotExist(err) {
			return candidate
		}
		index++
	}
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}
