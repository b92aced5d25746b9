// Package env holds the environment variables of a shell session.
package env

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

const (
	Home   = "HOME"
	PWD    = "PWD"
	OldPWD = "OLDPWD"
	Path   = "PATH"
	Prompt = "PS1"
	Shell  = "SHELL"
	User   = "USER"
)

// Environ is anything that can list variables in "key=value" form, like
// os.Environ.
type Environ interface {
	Environ() []string
}

// List adapts a "key=value" slice to Environ.
type List []string

// Environ implements Environ.
func (l List) Environ() []string {
	return l
}

// Split separates a "key=value" pair, a missing "=" gives an empty value.
func Split(kv string) (key, value string) {
	split := strings.SplitN(kv, "=", 2)
	key = split[0]
	if len(split) > 1 {
		value = split[1]
	}
	return key, value
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFrom creates a new environment with a copy of the variables in
// src.
func NewMapEnvFrom(src Environ) *MapEnv {
	out := &MapEnv{}
	out.Copy(src)
	return out
}

// FromOS snapshots the process environment.
func FromOS() *MapEnv {
	return NewMapEnvFrom(List(os.Environ()))
}

// MapEnv is an in-memory environment. Changing it never touches the process
// environment, so several sessions can live in one process.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

// Copy sets every variable listed by src.
func (m *MapEnv) Copy(src Environ) {
	for _, kv := range src.Environ() {
		if kv == "" {
			continue
		}
		m.Setenv(Split(kv))
	}
}

// Clone returns an independent copy of the environment.
func (m *MapEnv) Clone() *MapEnv {
	return NewMapEnvFrom(m)
}

// Unsetenv removes a single variable.
func (m *MapEnv) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// Setenv sets the value of the variable named by key.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv retrieves the value of the variable named by key and reports
// whether it was set.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv retrieves the value of the variable named by key, empty if unset.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// ExpandEnv replaces ${var} or $var in s with values from the environment.
func (m *MapEnv) ExpandEnv(s string) string {
	return os.Expand(s, m.Getenv)
}

// Keys returns the variable names in sorted order.
func (m *MapEnv) Keys() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	keys := make([]string, 0, len(m.env))
	for k := range m.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environ returns a copy of the environment as "key=value" strings sorted by
// key, suitable for exec.Cmd.Env.
func (m *MapEnv) Environ() []string {
	keys := m.Keys()

	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := m.env[k]; ok {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return env
}

// Len returns the number of variables.
func (m *MapEnv) Len() int {
	m.rw.RLock()
	defer m.rw.RUnlock()
	return len(m.env)
}

// Clearenv deletes all variables.
func (m *MapEnv) Clearenv() {
	m.rw.Lock()
	defer m.rw.Unlock()
	m.env = make(map[string]string)
}
