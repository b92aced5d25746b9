package commands

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/pipesh/core/env"
)

const DefaultPrompt = `\u@\h:\w\$ `

// Prompt renders PS1. It understands \u (user), \h and \H (short and full
// host name), \w and \W (working directory and its base name, with $HOME
// shown as ~), \$ ('#' for root), \n, \e and \\.
func (s *Shell) Prompt() string {
	prompt := s.Env.Getenv(env.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}

	var sb strings.Builder
	for i := 0; i < len(prompt); i++ {
		c := prompt[i]
		if c != '\\' || i+1 == len(prompt) {
			sb.WriteByte(c)
			continue
		}

		i++
		switch prompt[i] {
		case 'u':
			sb.WriteString(s.Color.Sprint(ColorBoldGreen, s.username()))
		case 'h':
			host, _, _ := strings.Cut(s.hostname(), ".")
			sb.WriteString(s.Color.Sprint(ColorBoldGreen, host))
		case 'H':
			sb.WriteString(s.Color.Sprint(ColorBoldGreen, s.hostname()))
		case 'w':
			sb.WriteString(s.Color.Sprint(ColorBoldBlue, s.tildeDir()))
		case 'W':
			dir := s.tildeDir()
			if dir != "~" && dir != "/" {
				dir = filepath.Base(dir)
			}
			sb.WriteString(s.Color.Sprint(ColorBoldBlue, dir))
		case '$':
			if os.Geteuid() == 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('$')
			}
		case 'n':
			sb.WriteByte('\n')
		case 'e':
			sb.WriteByte('\033')
		case '\\':
			sb.WriteByte('\\')
		case '[', ']':
			// Non-printing markers, readline measures escapes itself.
		default:
			sb.WriteByte('\\')
			sb.WriteByte(prompt[i])
		}
	}
	return sb.String()
}

func (s *Shell) tildeDir() string {
	dir := s.Getwd()
	home := s.Env.Getenv(env.Home)
	switch {
	case home == "" || home == "/":
		return dir
	case dir == home:
		return "~"
	case strings.HasPrefix(dir, home+"/"):
		return "~" + strings.TrimPrefix(dir, home)
	default:
		return dir
	}
}

func (s *Shell) username() string {
	if name := s.Env.Getenv(env.User); name != "" {
		return name
	}
	if name := s.Env.Getenv("LOGNAME"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "?"
}

func (s *Shell) hostname() string {
	if host := s.Env.Getenv("HOSTNAME"); host != "" {
		return host
	}
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}
