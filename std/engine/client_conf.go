package engine

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

type ClientConfig struct {
	TransportUri string
}

// DefaultTransportUri is the local forwarder socket for this platform.
func DefaultTransportUri() string {
	if runtime.GOOS == "darwin" {
		return "unix:///var/run/nfd/nfd.sock"
	}
	return "unix:///run/nfd/nfd.sock"
}

// GetClientConfig reads client.conf from the standard locations.
// NDN_CLIENT_TRANSPORT overrides the files.
func GetClientConfig() ClientConfig {
	config := ClientConfig{TransportUri: DefaultTransportUri()}

	// Order of increasing priority
	configDirs := []string{
		"/etc/ndn",
		"/usr/local/etc/ndn",
		filepath.Join(os.Getenv("HOME"), ".ndn"),
	}
	for _, dir := range configDirs {
		if uri, ok := readClientConf(filepath.Join(dir, "client.conf")); ok {
			config.TransportUri = uri
		}
	}

	if env := os.Getenv("NDN_CLIENT_TRANSPORT"); env != "" {
		config.TransportUri = env
	}
	return config
}

func readClientConf(filename string) (string, bool) {
	file, err := os.Open(filename)
	if err != nil {
		return "", false
	}
	defer file.Close()

	uri, found := "", false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ";") { // comment
			continue
		}
		if transport, ok := strings.CutPrefix(line, "transport="); ok {
			uri, found = strings.TrimSpace(transport), true
		}
	}
	return uri, found
}
