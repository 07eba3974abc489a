// Package config loads server_options.properties, a Java-.properties-style
// key=value file, creating it with documented defaults if absent or
// incomplete, and falling back to defaults silently-logged on any
// malformed value — ported from ServerOptions.java's
// initializeOrUpdateProperties/loadValuesFromProperties.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const filename = "server_options.properties"

const (
	keyKeepAlive     = "keepAlive"
	keyTimeout       = "keepAliveTimeoutSeconds"
	keyBufferPools   = "bufferPools"
	keyThreadsNumber = "threadsNumber"
	keyServerName    = "server_name"
)

// Options is the server's runtime configuration, loaded once at startup.
type Options struct {
	KeepAlive      bool
	TimeoutSeconds int
	BufferPools    int
	ThreadsNumber  int
	ServerName     string
}

// defaults mirrors ServerOptions.java's defaultProps map, in the same
// order, so a freshly written file has a stable, reviewable key order.
var defaultProps = []struct{ key, value string }{
	{keyKeepAlive, "true"},
	{keyTimeout, "30"},
	{keyBufferPools, "128"},
	{keyThreadsNumber, "8"},
	{keyServerName, "fast-socket-api"},
}

// fallback mirrors setFallbackDefaults: what is used when the file exists
// but contains a value that fails to parse.
var fallback = Options{
	KeepAlive:      true,
	TimeoutSeconds: 30,
	BufferPools:    128,
	ThreadsNumber:  8,
	ServerName:     "default-server",
}

// Load reads server_options.properties from dir, creating or updating it
// with any missing default keys, and returns the resulting Options. A
// malformed numeric value anywhere in the file causes every field to fall
// back to the fallback values (the defaults, except that ServerName becomes
// "default-server"), matching the reference implementation's
// all-or-nothing fallback.
func Load(dir string) (Options, error) {
	path := filepath.Join(dir, filename)

	props, existed, err := readProperties(path)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("could not read properties file; default values will be used")
		props = map[string]string{}
		existed = false
	}

	needsUpdate := !existed
	for _, d := range defaultProps {
		if _, ok := props[d.key]; !ok {
			props[d.key] = d.value
			log.Warn().Str("key", d.key).Str("default", d.value).Msg("missing property; adding default")
			needsUpdate = true
		}
	}

	if needsUpdate {
		if err := writeProperties(path, props); err != nil {
			log.Error().Err(err).Str("file", filename).Msg("could not create or update properties file")
		}
	}

	return parseOptions(props), nil
}

func parseOptions(props map[string]string) Options {
	keepAlive, errKA := strconv.ParseBool(props[keyKeepAlive])
	timeout, errTO := strconv.Atoi(props[keyTimeout])
	bufferPools, errBP := strconv.Atoi(props[keyBufferPools])
	threadsNumber, errTN := strconv.Atoi(props[keyThreadsNumber])

	if errKA != nil || errTO != nil || errBP != nil || errTN != nil {
		log.Error().Msg("invalid number format in properties file; fallback values will be used")
		return fallback
	}

	return Options{
		KeepAlive:      keepAlive,
		TimeoutSeconds: timeout,
		BufferPools:    bufferPools,
		ThreadsNumber:  threadsNumber,
		ServerName:     props[keyServerName],
	}
}

func readProperties(path string) (map[string]string, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	props := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		props[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	return props, true, nil
}

func writeProperties(path string, props map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	w.WriteString("# Default Server Options\n")
	for _, d := range defaultProps {
		v, ok := props[d.key]
		if !ok {
			v = d.value
		}
		w.WriteString(d.key)
		w.WriteString("=")
		w.WriteString(v)
		w.WriteString("\n")
	}
	return nil
}
