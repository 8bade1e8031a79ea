package models

import (
	"encoding/json"
	"strings"
)

// RoomTypeVirtual marks rooms that exist only for remote teaching; they are
// excluded from physical availability queries.
const RoomTypeVirtual = "VIRTUELLE"

// Room describes one teaching room.
type Room struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// UnmarshalJSON accepts the legacy config shape where rooms were plain strings.
func (r *Room) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		r.Type = ""
		return nil
	}
	type alias Room
	return json.Unmarshal(data, (*alias)(r))
}

// InstitutionConfig is the grid the timetable is laid out on.
type InstitutionConfig struct {
	Jours    []string `json:"jours"`
	Creneaux []int    `json:"creneaux"`
	Salles   []Room   `json:"salles"`
}

// CatalogTeacher is a teacher entry in the reference catalog.
type CatalogTeacher struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Assignment binds a teacher to a module they are allowed to teach.
type Assignment struct {
	Teacher string `json:"teacher"`
	Module  string `json:"module"`
}

// FusionGroup represents several groups taught together online.
type FusionGroup struct {
	ID      string   `json:"id"`
	Groupes []string `json:"groupes"`
}

// Catalog is the reference data the negotiation workflow validates against.
type Catalog struct {
	Teachers      []CatalogTeacher `json:"teachers"`
	Groups        []string         `json:"groups"`
	Modules       []string         `json:"modules"`
	Assignments   []Assignment     `json:"assignments"`
	OnlineFusions []FusionGroup    `json:"onlineFusions"`
}

// ExpandGroupIDs resolves a group id to the set of concrete group ids it
// covers, unfolding fusion groups.
func (c *Catalog) ExpandGroupIDs(groupID string) []string {
	if c != nil {
		for _, fusion := range c.OnlineFusions {
			if strings.EqualFold(fusion.ID, groupID) {
				return append([]string(nil), fusion.Groupes...)
			}
		}
	}
	return []string{groupID}
}

// ModulesForTeacher returns the allow-list of modules a teacher may propose
// insertions for, derived from catalog assignments.
func (c *Catalog) ModulesForTeacher(teacherID string) map[string]struct{} {
	allowed := make(map[string]struct{})
	if c == nil {
		return allowed
	}
	for _, assignment := range c.Assignments {
		if assignment.Teacher == teacherID {
			allowed[assignment.Module] = struct{}{}
		}
	}
	return allowed
}

// PlannedSession is one workload row consumed by the bulk generator.
type PlannedSession struct {
	ID        string `json:"id"`
	Formateur string `json:"formateur"`
	Groupe    string `json:"groupe"`
	Module    string `json:"module"`
	Volume    int    `json:"volume"`
}
