package models

import (
	"strings"
	"sync"
)

// Section partitions both the catalog and the student roster.
type Section string

const (
	SectionElectrical Section = "electrical"
	SectionMechanical Section = "mechanical"
	SectionOperator   Section = "operator"
)

type SectionInfo struct {
	ID   Section `json:"id"`
	Name string  `json:"name"`
}

var (
	sectionsMu sync.RWMutex
	sections   = []SectionInfo{
		{ID: SectionElectrical, Name: "Electrical"},
		{ID: SectionMechanical, Name: "Mechanical"},
		{ID: SectionOperator, Name: "Computer Operator"},
	}
)

// RegisterSection adds a section to the registry, or renames it if the id
// is already known. Registration order is the display order.
func RegisterSection(id Section, name string) {
	sectionsMu.Lock()
	defer sectionsMu.Unlock()

	for i := range sections {
		if sections[i].ID == id {
			sections[i].Name = name
			return
		}
	}
	sections = append(sections, SectionInfo{ID: id, Name: name})
}

// Sections returns a copy of the registry in display order.
func Sections() []SectionInfo {
	sectionsMu.RLock()
	defer sectionsMu.RUnlock()

	out := make([]SectionInfo, len(sections))
	copy(out, sections)
	return out
}

// ParseSection accepts registered section ids only, case-insensitively.
func ParseSection(value string) (Section, bool) {
	candidate := Section(strings.ToLower(strings.TrimSpace(value)))
	if candidate == "" {
		return "", false
	}

	sectionsMu.RLock()
	defer sectionsMu.RUnlock()
	for _, s := range sections {
		if s.ID == candidate {
			return candidate, true
		}
	}
	return "", false
}

func (s Section) DisplayName() string {
	sectionsMu.RLock()
	defer sectionsMu.RUnlock()
	for _, info := range sections {
		if info.ID == s {
			return info.Name
		}
	}
	return string(s)
}
