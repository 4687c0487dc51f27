package model

import (
	"fmt"
	"strings"
)

// Service is an offering of the salon. Name identifies it in records and
// callbacks; Emoji only decorates buttons.
type Service struct {
	Name  string
	Emoji string
}

func (s Service) Label() string {
	if s.Emoji == "" {
		return s.Name
	}
	return s.Emoji + " " + s.Name
}

var DefaultServices = []Service{
	{Name: "Manicure", Emoji: "💅"},
	{Name: "Pedicure", Emoji: "👠"},
	{Name: "Haircut", Emoji: "✂️"},
	{Name: "Coloring", Emoji: "🎨"},
}

// ParseServices reads a "Name:emoji,Name:emoji" list. The emoji part is
// optional. An empty input yields DefaultServices.
func ParseServices(raw string) ([]Service, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]Service(nil), DefaultServices...), nil
	}
	var out []Service
	seen := map[string]bool{}
	for _, item := range strings.Split(raw, ",") {
		name, emoji, _ := strings.Cut(strings.TrimSpace(item), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty service name in %q", raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate service %q", name)
		}
		seen[name] = true
		out = append(out, Service{Name: name, Emoji: strings.TrimSpace(emoji)})
	}
	return out, nil
}

func ServiceNames(services []Service) []string {
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	return names
}
